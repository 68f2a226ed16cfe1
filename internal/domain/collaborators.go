package domain

import "context"

// ExchangeDescriptor is the metadata an AdapterFactory needs to open a
// session for one exchange: its canonical name and the stable id used to
// resolve credentials.
type ExchangeDescriptor struct {
	Name string
	ID   int
}

// CredentialProviderFunc is invoked by the adapter to obtain API credentials
// for the session it is opening. Empty strings are valid for public streams.
type CredentialProviderFunc func(ctx context.Context) (apiKey, apiSecret string, err error)

// TickCallback is invoked by the adapter for every decoded tick on an
// adapter-chosen goroutine. Implementations must not block indefinitely.
type TickCallback func(ctx context.Context, tick TickRecord)

// WebSocketHandler is one connected session to one exchange, as produced by
// an AdapterFactory. It is an external collaborator: the core never dials a
// socket itself.
type WebSocketHandler interface {
	// SubscribeTicker subscribes to one symbol on this session. cb is
	// invoked for every tick delivered for that symbol. A non-nil error
	// means the subscription never took effect; the caller must not mark
	// the symbol active.
	SubscribeTicker(ctx context.Context, symbol string, cb TickCallback) error
}

// AdapterFactory is the exchange adapter library boundary: initialize-once,
// shutdown-once, connection/auth/reconnection all owned by the adapter.
type AdapterFactory interface {
	// GetWebSocketHandler returns a ready (connection-acknowledged) handler
	// for the given exchange. creds is invoked by the adapter itself to
	// obtain API key material; the adapter decides when and how often.
	GetWebSocketHandler(ctx context.Context, descriptor ExchangeDescriptor, creds CredentialProviderFunc) (WebSocketHandler, error)
	// Shutdown closes every handler this factory has produced and cancels
	// all outstanding subscriptions. Safe to call once at process teardown.
	Shutdown(ctx context.Context) error
}

// TickerStore is the external latest-value keyed store. Only the most
// recent value per (exchange, symbol) is retained; concurrent writers
// resolve last-writer-wins.
type TickerStore interface {
	SetTicker(ctx context.Context, tick TickRecord) error
}

// ProcessRegistry is the external health/liveness directory.
type ProcessRegistry interface {
	// RegisterProcess creates a new entry and returns its opaque id.
	RegisterProcess(ctx context.Context, processType ProcessType, component string, params map[string]string, message string, status ProcessStatus) (string, error)
	// UpdateProcess advances the status/message of an existing entry.
	UpdateProcess(ctx context.Context, processID string, status ProcessStatus, message string) error
}

// ConfigStore returns the set of symbols to collect and exchange metadata.
type ConfigStore interface {
	ListAllSymbols(ctx context.Context) ([]SymbolRef, error)
}

// CredentialResolver returns API key material by exchange id. A failure to
// resolve is not an error condition for callers: fall back to empty
// credentials and proceed, since public ticker streams need none.
type CredentialResolver interface {
	Resolve(ctx context.Context, exchangeID int) (apiKey, apiSecret string, err error)
}
