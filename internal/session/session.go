// Package session manages a single WebSocket session to a single exchange,
// multiplexing many symbols over one adapter-provided handler.
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

// ExchangeSession encapsulates one adapter-provided WebSocket session for
// one exchange. It exposes no API to consumers beyond Subscribe and
// ExchangeName — it is an internal detail of the collector.
type ExchangeSession struct {
	exchangeName string
	exchangeID   int
	handler      domain.WebSocketHandler
	logger       *zap.SugaredLogger
}

// New resolves credentials for exchangeID (falling back to empty
// credentials on resolver failure), acquires a handler from the adapter
// factory, and returns a ready session.
func New(ctx context.Context, descriptor domain.ExchangeDescriptor, resolver domain.CredentialResolver, factory domain.AdapterFactory, logger *zap.SugaredLogger) (*ExchangeSession, error) {
	provider := credentialProvider(descriptor.ID, resolver, logger)

	handler, err := factory.GetWebSocketHandler(ctx, descriptor, provider)
	if err != nil {
		return nil, fmt.Errorf("get websocket handler for %s: %w", descriptor.Name, err)
	}

	return &ExchangeSession{
		exchangeName: descriptor.Name,
		exchangeID:   descriptor.ID,
		handler:      handler,
		logger:       logger,
	}, nil
}

// credentialProvider adapts a domain.CredentialResolver into the
// domain.CredentialProviderFunc the adapter invokes. Resolver failure is not
// propagated — public ticker streams are expected to work without auth.
func credentialProvider(exchangeID int, resolver domain.CredentialResolver, logger *zap.SugaredLogger) domain.CredentialProviderFunc {
	return func(ctx context.Context) (string, string, error) {
		if resolver == nil {
			return "", "", nil
		}
		key, secret, err := resolver.Resolve(ctx, exchangeID)
		if err != nil {
			logger.Warnf("credential resolution failed for exchange id %d, falling back to public access: %v", exchangeID, err)
			return "", "", nil
		}
		return key, secret, nil
	}
}

// Subscribe subscribes one symbol on this session, routing every delivered
// tick through cb. A non-nil error means the subscription never took
// effect.
func (s *ExchangeSession) Subscribe(ctx context.Context, symbol string, cb domain.TickCallback) error {
	return s.handler.SubscribeTicker(ctx, symbol, cb)
}

// ExchangeName returns the exchange this session belongs to.
func (s *ExchangeSession) ExchangeName() string {
	return s.exchangeName
}
