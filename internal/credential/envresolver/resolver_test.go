package envresolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ReadsPrefixedEnvVars(t *testing.T) {
	t.Setenv("EXCHANGE_BINANCE_API_KEY", "key-123")
	t.Setenv("EXCHANGE_BINANCE_API_SECRET", "secret-456")

	r := New(map[int]string{1: "binance"})
	key, secret, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "key-123", key)
	assert.Equal(t, "secret-456", secret)
}

func TestResolve_UnknownExchangeIDFallsBackToEmpty(t *testing.T) {
	r := New(map[int]string{1: "binance"})
	key, secret, err := r.Resolve(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Empty(t, secret)
}

func TestResolve_MissingKeyVarFallsBackToEmpty(t *testing.T) {
	r := New(map[int]string{1: "binance"})
	key, secret, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Empty(t, secret)
}

func TestResolve_NameIsUppercasedForEnvLookup(t *testing.T) {
	t.Setenv("EXCHANGE_KRAKEN_API_KEY", "key-789")

	r := New(map[int]string{2: "kraken"})
	key, _, err := r.Resolve(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "key-789", key)
}
