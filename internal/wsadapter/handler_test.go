package wsadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

var upgrader = websocket.Upgrader{}

// echoTickServer accepts each connection and immediately pushes the given
// wireTick, whatever streams the URL requests.
func echoTickServer(t *testing.T, tick wireTick) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		payload, _ := json.Marshal(tick)
		_ = conn.WriteMessage(websocket.TextMessage, payload)

		// Keep the connection open briefly so the client has time to read.
		time.Sleep(200 * time.Millisecond)
	}))
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestHandler_SubscribeTickerDeliversDecodedTick(t *testing.T) {
	srv := echoTickServer(t, wireTick{Symbol: "BTCUSDT", Price: 65000, Time: 1})
	defer srv.Close()

	h := newHandler("kraken", Endpoint{BaseURL: wsURL(srv.URL), StreamSuffix: "@ticker"}, Config{}.withDefaults(), "", "", zap.NewNop().Sugar())
	defer h.Close()

	var mu sync.Mutex
	var got []domain.TickRecord
	err := h.SubscribeTicker(context.Background(), "BTCUSDT", func(_ context.Context, tick domain.TickRecord) {
		mu.Lock()
		got = append(got, tick)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "kraken", got[0].Exchange)
	assert.Equal(t, "BTCUSDT", got[0].Symbol)
	assert.Equal(t, 65000.0, got[0].Price)
}

func TestHandler_SubscribeTickerAfterCloseFails(t *testing.T) {
	h := newHandler("kraken", Endpoint{BaseURL: "ws://127.0.0.1:0", StreamSuffix: "@ticker"}, Config{}.withDefaults(), "", "", zap.NewNop().Sugar())
	require.NoError(t, h.Close())

	err := h.SubscribeTicker(context.Background(), "BTCUSDT", func(context.Context, domain.TickRecord) {})
	assert.Error(t, err)
}

func TestHandler_BuildURLJoinsSymbolsWithSuffix(t *testing.T) {
	h := newHandler("kraken", Endpoint{BaseURL: "ws://example.test", StreamSuffix: "@ticker"}, Config{}.withDefaults(), "", "", zap.NewNop().Sugar())
	url := h.buildURL([]string{"BTCUSDT", "ETHUSDT"})
	assert.True(t, strings.HasPrefix(url, "ws://example.test/stream?streams="))
	assert.Contains(t, url, "btcusdt@ticker")
	assert.Contains(t, url, "ethusdt@ticker")
}

func TestFactory_GetWebSocketHandlerReusesSameExchange(t *testing.T) {
	endpoints := map[string]Endpoint{"kraken": {BaseURL: "ws://example.test", StreamSuffix: "@ticker"}}
	f := NewFactory(endpoints, Config{}, zap.NewNop().Sugar())

	noopCreds := func(context.Context) (string, string, error) { return "", "", nil }

	h1, err := f.GetWebSocketHandler(context.Background(), domain.ExchangeDescriptor{Name: "kraken"}, noopCreds)
	require.NoError(t, err)
	h2, err := f.GetWebSocketHandler(context.Background(), domain.ExchangeDescriptor{Name: "kraken"}, noopCreds)
	require.NoError(t, err)

	assert.Same(t, h1, h2)
}

func TestFactory_UnknownExchangeFails(t *testing.T) {
	f := NewFactory(map[string]Endpoint{}, Config{}, zap.NewNop().Sugar())
	noopCreds := func(context.Context) (string, string, error) { return "", "", nil }

	_, err := f.GetWebSocketHandler(context.Background(), domain.ExchangeDescriptor{Name: "kraken"}, noopCreds)
	assert.Error(t, err)
}

func TestFactory_ShutdownClosesEveryHandler(t *testing.T) {
	endpoints := map[string]Endpoint{
		"kraken":  {BaseURL: "ws://example.test", StreamSuffix: "@ticker"},
		"binance": {BaseURL: "ws://example.test", StreamSuffix: "@ticker"},
	}
	f := NewFactory(endpoints, Config{}, zap.NewNop().Sugar())
	noopCreds := func(context.Context) (string, string, error) { return "", "", nil }

	h1, err := f.GetWebSocketHandler(context.Background(), domain.ExchangeDescriptor{Name: "kraken"}, noopCreds)
	require.NoError(t, err)
	h2, err := f.GetWebSocketHandler(context.Background(), domain.ExchangeDescriptor{Name: "binance"}, noopCreds)
	require.NoError(t, err)

	assert.NoError(t, f.Shutdown(context.Background()))

	noopCb := func(context.Context, domain.TickRecord) {}
	assert.Error(t, h1.SubscribeTicker(context.Background(), "BTCUSDT", noopCb))
	assert.Error(t, h2.SubscribeTicker(context.Background(), "BTCUSDT", noopCb))
}
