package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain/domaintest"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestNew_AcquiresHandlerAndForwardsCredentials(t *testing.T) {
	factory := domaintest.NewAdapterFactory()
	resolver := domaintest.NewCredentialResolver()
	resolver.Creds[7] = [2]string{"key-7", "secret-7"}

	sess, err := New(context.Background(), domain.ExchangeDescriptor{Name: "kraken", ID: 7}, resolver, factory, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "kraken", sess.ExchangeName())
	assert.Equal(t, 1, factory.GetHandlerCalls)

	key, secret := sess.handler.(*domaintest.Handler).Credentials()
	assert.Equal(t, "key-7", key)
	assert.Equal(t, "secret-7", secret)
}

func TestNew_CredentialResolverFailureFallsBackToPublic(t *testing.T) {
	factory := domaintest.NewAdapterFactory()
	resolver := domaintest.NewCredentialResolver()
	resolver.Err = errors.New("credential store down")

	sess, err := New(context.Background(), domain.ExchangeDescriptor{Name: "kraken", ID: 7}, resolver, factory, testLogger())
	require.NoError(t, err)
	require.NotNil(t, sess)

	handler := factory.HandlerCount()
	assert.Equal(t, 1, handler)
}

func TestNew_NilResolverFallsBackToPublic(t *testing.T) {
	factory := domaintest.NewAdapterFactory()

	sess, err := New(context.Background(), domain.ExchangeDescriptor{Name: "kraken", ID: 7}, nil, factory, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestNew_FactoryFailurePropagates(t *testing.T) {
	factory := domaintest.NewAdapterFactory()
	factory.FailExchanges["kraken"] = true
	resolver := domaintest.NewCredentialResolver()

	sess, err := New(context.Background(), domain.ExchangeDescriptor{Name: "kraken", ID: 7}, resolver, factory, testLogger())
	assert.Error(t, err)
	assert.Nil(t, sess)
}

func TestSubscribe_DelegatesToHandlerAndDeliversTicks(t *testing.T) {
	factory := domaintest.NewAdapterFactory()
	resolver := domaintest.NewCredentialResolver()

	sess, err := New(context.Background(), domain.ExchangeDescriptor{Name: "kraken", ID: 7}, resolver, factory, testLogger())
	require.NoError(t, err)

	var received []domain.TickRecord
	err = sess.Subscribe(context.Background(), "BTC/USD", func(_ context.Context, tick domain.TickRecord) {
		received = append(received, tick)
	})
	require.NoError(t, err)

	provider := func(ctx context.Context) (string, string, error) {
		return resolver.Resolve(ctx, 7)
	}
	handler, err := factory.GetWebSocketHandler(context.Background(), domain.ExchangeDescriptor{Name: "kraken", ID: 7}, provider)
	require.NoError(t, err)
	h := handler.(*domaintest.Handler)

	ok := h.Deliver(context.Background(), domain.TickRecord{Exchange: "kraken", Symbol: "BTC/USD", Price: 65000})
	assert.True(t, ok)
	require.Len(t, received, 1)
	assert.Equal(t, 65000.0, received[0].Price)
}

func TestSubscribe_FailurePropagates(t *testing.T) {
	factory := domaintest.NewAdapterFactory()
	factory.FailSymbols["kraken:BTC/USD"] = true
	resolver := domaintest.NewCredentialResolver()

	sess, err := New(context.Background(), domain.ExchangeDescriptor{Name: "kraken", ID: 7}, resolver, factory, testLogger())
	require.NoError(t, err)

	err = sess.Subscribe(context.Background(), "BTC/USD", func(context.Context, domain.TickRecord) {})
	assert.Error(t, err)
}

