package rediskv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func ptr(f float64) *float64 { return &f }

func TestTickerStore_SetThenGetRoundTrips(t *testing.T) {
	ctx := context.Background()
	store := NewTickerStore(newTestClient(t), "ticker:latest")

	tick := domain.TickRecord{
		Exchange: "binance",
		Symbol:   "BTCUSDT",
		Price:    50123.45,
		Bid:      ptr(50123.0),
		Ask:      ptr(50124.0),
		Volume:   ptr(12.5),
		Time:     1700000000,
	}
	require.NoError(t, store.SetTicker(ctx, tick))

	got, err := store.GetTicker(ctx, "binance", "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, tick.Exchange, got.Exchange)
	assert.Equal(t, tick.Symbol, got.Symbol)
	assert.Equal(t, tick.Price, got.Price)
	assert.Equal(t, *tick.Bid, *got.Bid)
	assert.Equal(t, tick.Time, got.Time)
}

func TestTickerStore_SecondWriteOverwritesFirst(t *testing.T) {
	ctx := context.Background()
	store := NewTickerStore(newTestClient(t), "ticker:latest")

	require.NoError(t, store.SetTicker(ctx, domain.TickRecord{Exchange: "binance", Symbol: "ETHUSDT", Price: 1000, Time: 1}))
	require.NoError(t, store.SetTicker(ctx, domain.TickRecord{Exchange: "binance", Symbol: "ETHUSDT", Price: 2000, Time: 2}))

	got, err := store.GetTicker(ctx, "binance", "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2000.0, got.Price)
	assert.Equal(t, int64(2), got.Time)
}

func TestTickerStore_DistinctSymbolsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := NewTickerStore(newTestClient(t), "ticker:latest")

	require.NoError(t, store.SetTicker(ctx, domain.TickRecord{Exchange: "binance", Symbol: "BTCUSDT", Price: 1}))
	require.NoError(t, store.SetTicker(ctx, domain.TickRecord{Exchange: "kraken", Symbol: "BTCUSDT", Price: 2}))

	a, err := store.GetTicker(ctx, "binance", "BTCUSDT")
	require.NoError(t, err)
	b, err := store.GetTicker(ctx, "kraken", "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.Price)
	assert.Equal(t, 2.0, b.Price)
}

func TestTickerStore_GetMissingReturnsError(t *testing.T) {
	store := NewTickerStore(newTestClient(t), "ticker:latest")
	_, err := store.GetTicker(context.Background(), "binance", "NOSUCH")
	assert.Error(t, err)
}

func TestProcessRegistry_RegisterThenUpdate(t *testing.T) {
	ctx := context.Background()
	registry := NewProcessRegistry(newTestClient(t), "process")

	id, err := registry.RegisterProcess(ctx, domain.ProcessTypeTick, "binance:BTCUSDT", map[string]string{"exchange": "binance"}, "starting", domain.ProcessStarting)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, registry.UpdateProcess(ctx, id, domain.ProcessRunning, "received tick at 1700000000"))
}

func TestProcessRegistry_DistinctRegistrationsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	registry := NewProcessRegistry(newTestClient(t), "process")

	id1, err := registry.RegisterProcess(ctx, domain.ProcessTypeTick, "a", nil, "starting", domain.ProcessStarting)
	require.NoError(t, err)
	id2, err := registry.RegisterProcess(ctx, domain.ProcessTypeTick, "b", nil, "starting", domain.ProcessStarting)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestProcessRegistry_UpdateUnknownIDFails(t *testing.T) {
	registry := NewProcessRegistry(newTestClient(t), "process")
	err := registry.UpdateProcess(context.Background(), "does-not-exist", domain.ProcessStopped, "stopped")
	assert.Error(t, err)
}
