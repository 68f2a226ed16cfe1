// Package wsadapter is the default domain.AdapterFactory: one combined-stream
// WebSocket connection per exchange, rebuilt with exponential backoff on
// disconnect and re-dialed whenever the subscribed symbol set changes.
package wsadapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

// Endpoint is the per-exchange connection template: the base WebSocket URL
// and the suffix appended to each symbol to build its stream name (Binance's
// combined-stream convention: "btcusdt@ticker").
type Endpoint struct {
	BaseURL      string
	StreamSuffix string
}

// Config tunes the reconnect loop shared by every handler this factory
// produces.
type Config struct {
	HandshakeTimeout  time.Duration
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
	return c
}

// Factory is the production domain.AdapterFactory. It holds one Handler per
// exchange name, created lazily on first GetWebSocketHandler call.
type Factory struct {
	endpoints map[string]Endpoint
	cfg       Config
	logger    *zap.SugaredLogger

	mu       sync.Mutex
	handlers map[string]*Handler
}

// NewFactory builds a Factory that knows how to reach the exchanges named in
// endpoints. GetWebSocketHandler for any other exchange name fails.
func NewFactory(endpoints map[string]Endpoint, cfg Config, logger *zap.SugaredLogger) *Factory {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Factory{
		endpoints: endpoints,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		handlers:  make(map[string]*Handler),
	}
}

// GetWebSocketHandler returns the existing handler for descriptor.Name, or
// creates one. The credential provider is invoked once, at creation time,
// and the resulting pair is attached to every dial as connection headers.
// The returned handler has not connected yet: it dials on its first
// SubscribeTicker call, so no connection acknowledgement precedes the return.
func (f *Factory) GetWebSocketHandler(ctx context.Context, descriptor domain.ExchangeDescriptor, creds domain.CredentialProviderFunc) (domain.WebSocketHandler, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.handlers[descriptor.Name]; ok {
		return h, nil
	}

	endpoint, ok := f.endpoints[descriptor.Name]
	if !ok {
		return nil, fmt.Errorf("no websocket endpoint configured for exchange %s", descriptor.Name)
	}

	apiKey, apiSecret, err := creds(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve credentials for %s: %w", descriptor.Name, err)
	}

	h := newHandler(descriptor.Name, endpoint, f.cfg, apiKey, apiSecret, f.logger)
	f.handlers[descriptor.Name] = h
	return h, nil
}

// Shutdown closes every handler this factory has produced. Every handler is
// closed even if an earlier one fails; errors are aggregated.
func (f *Factory) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs error
	for name, h := range f.handlers {
		if err := h.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close %s handler: %w", name, err))
		}
	}
	f.handlers = make(map[string]*Handler)
	return errs
}
