package domaintest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

// AdapterFactory is an in-memory domain.AdapterFactory. Tests drive tick
// delivery explicitly via Deliver; no real network connection is opened.
type AdapterFactory struct {
	mu       sync.Mutex
	handlers map[string]*Handler

	// FailExchanges marks exchange names that fail GetWebSocketHandler.
	FailExchanges map[string]bool
	// FailSymbols marks "exchange:symbol" pairs that fail SubscribeTicker.
	FailSymbols map[string]bool

	GetHandlerCalls int
	ShutdownCalls   int
}

func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{
		handlers:      make(map[string]*Handler),
		FailExchanges: make(map[string]bool),
		FailSymbols:   make(map[string]bool),
	}
}

func (f *AdapterFactory) GetWebSocketHandler(_ context.Context, descriptor domain.ExchangeDescriptor, creds domain.CredentialProviderFunc) (domain.WebSocketHandler, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetHandlerCalls++

	if f.FailExchanges[descriptor.Name] {
		return nil, fmt.Errorf("no connectivity to %s", descriptor.Name)
	}

	if h, ok := f.handlers[descriptor.Name]; ok {
		return h, nil
	}

	key, secret, _ := creds(context.Background())
	h := &Handler{
		exchange:    descriptor.Name,
		apiKey:      key,
		apiSecret:   secret,
		subs:        make(map[string]domain.TickCallback),
		failSymbols: f.FailSymbols,
	}
	f.handlers[descriptor.Name] = h
	return h, nil
}

func (f *AdapterFactory) Shutdown(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ShutdownCalls++
	for _, h := range f.handlers {
		h.closed = true
	}
	return nil
}

// HandlerCount returns the number of distinct exchanges a handler was
// produced for — equivalent to SessionMap's size from the factory's view.
func (f *AdapterFactory) HandlerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// Handler is an in-memory domain.WebSocketHandler for one exchange.
type Handler struct {
	mu          sync.Mutex
	exchange    string
	apiKey      string
	apiSecret   string
	subs        map[string]domain.TickCallback
	failSymbols map[string]bool
	closed      bool

	SubscribeCalls int
}

func (h *Handler) SubscribeTicker(_ context.Context, symbol string, cb domain.TickCallback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.SubscribeCalls++

	if h.failSymbols[h.exchange+":"+symbol] {
		return fmt.Errorf("subscribe rejected for %s:%s", h.exchange, symbol)
	}
	h.subs[symbol] = cb
	return nil
}

// Deliver simulates the adapter pushing a tick to a subscribed symbol's
// callback, synchronously, exactly as the real adapter's delivery goroutine
// would invoke it.
func (h *Handler) Deliver(ctx context.Context, tick domain.TickRecord) bool {
	h.mu.Lock()
	cb, ok := h.subs[tick.Symbol]
	closed := h.closed
	h.mu.Unlock()
	if !ok || closed {
		return false
	}
	cb(ctx, tick)
	return true
}

func (h *Handler) SubscriptionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Handler) Credentials() (string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.apiKey, h.apiSecret
}
