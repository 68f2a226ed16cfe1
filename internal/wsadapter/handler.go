package wsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

// wireTick is the generic ticker payload decoded off the socket. A
// production deployment can swap in an exchange-specific decoder behind the
// same Handler by changing decodeTick; the wire format itself is an adapter
// concern, not something the orchestrator core assumes.
type wireTick struct {
	Symbol string   `json:"symbol"`
	Price  float64  `json:"price"`
	Bid    *float64 `json:"bid,omitempty"`
	Ask    *float64 `json:"ask,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
	Time   int64    `json:"time"`
}

// Handler is one combined-stream WebSocket connection to one exchange. It
// implements domain.WebSocketHandler. Every call to SubscribeTicker adds a
// symbol to the live stream list and triggers a reconnect carrying the
// updated combined-stream URL.
type Handler struct {
	exchange  string
	endpoint  Endpoint
	cfg       Config
	apiKey    string
	apiSecret string
	logger    *zap.SugaredLogger

	rootCtx    context.Context
	rootCancel context.CancelFunc

	mu        sync.Mutex
	symbols   map[string]domain.TickCallback
	genCancel context.CancelFunc
	closed    bool
}

func newHandler(exchange string, endpoint Endpoint, cfg Config, apiKey, apiSecret string, logger *zap.SugaredLogger) *Handler {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &Handler{
		exchange:   exchange,
		endpoint:   endpoint,
		cfg:        cfg,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		logger:     logger,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		symbols:    make(map[string]domain.TickCallback),
	}
}

// SubscribeTicker adds symbol to the live stream set and restarts the
// connection with the combined stream list including it. Adapter disconnects
// afterward are invisible to the caller: the reconnect loop resumes
// delivery transparently.
func (h *Handler) SubscribeTicker(_ context.Context, symbol string, cb domain.TickCallback) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return fmt.Errorf("handler for %s is closed", h.exchange)
	}
	h.symbols[symbol] = cb
	snapshot := h.symbolList()
	h.mu.Unlock()

	h.restart(snapshot)
	return nil
}

func (h *Handler) symbolList() []string {
	list := make([]string, 0, len(h.symbols))
	for s := range h.symbols {
		list = append(list, s)
	}
	return list
}

// restart cancels the current connection generation, if any, and starts a
// fresh one against the given symbol snapshot.
func (h *Handler) restart(symbols []string) {
	h.mu.Lock()
	if h.genCancel != nil {
		h.genCancel()
	}
	genCtx, cancel := context.WithCancel(h.rootCtx)
	h.genCancel = cancel
	h.mu.Unlock()

	go h.run(genCtx, symbols)
}

// Close cancels every connection this handler owns. Safe to call once.
func (h *Handler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.rootCancel()
	return nil
}

type backoffState struct {
	current time.Duration
	max     time.Duration
}

func (h *Handler) newBackoff() backoffState {
	return backoffState{current: h.cfg.ReconnectDelay, max: h.cfg.MaxReconnectDelay}
}

func (h *Handler) run(ctx context.Context, symbols []string) {
	if len(symbols) == 0 {
		return
	}

	backoff := h.newBackoff()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := h.connectAndRead(ctx, symbols)

		select {
		case <-ctx.Done():
			return
		default:
			if err != nil {
				h.logger.Warnf("[%s] websocket disconnected: %v, retry in %v", h.exchange, err, backoff.current)
			}
			h.waitWithBackoff(ctx, &backoff)
		}
	}
}

func (h *Handler) waitWithBackoff(ctx context.Context, b *backoffState) {
	select {
	case <-time.After(b.current):
		b.current *= 2
		if b.current > b.max {
			b.current = b.max
		}
	case <-ctx.Done():
	}
}

func (h *Handler) connectAndRead(ctx context.Context, symbols []string) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = h.cfg.HandshakeTimeout

	conn, resp, err := dialer.DialContext(ctx, h.buildURL(symbols), h.headers())
	if err != nil {
		status := ""
		if resp != nil {
			status = resp.Status
		}
		return fmt.Errorf("dial: %w (status: %s)", err, status)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(raw []byte) {
	var wt wireTick
	if err := json.Unmarshal(raw, &wt); err != nil {
		h.logger.Warnf("[%s] malformed ticker payload: %v", h.exchange, err)
		return
	}
	if wt.Symbol == "" {
		return
	}

	h.mu.Lock()
	cb, ok := h.symbols[wt.Symbol]
	h.mu.Unlock()
	if !ok {
		return
	}

	cb(context.Background(), domain.TickRecord{
		Exchange: h.exchange,
		Symbol:   wt.Symbol,
		Price:    wt.Price,
		Bid:      wt.Bid,
		Ask:      wt.Ask,
		Volume:   wt.Volume,
		Time:     wt.Time,
	})
}

func (h *Handler) buildURL(symbols []string) string {
	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = strings.ToLower(s) + h.endpoint.StreamSuffix
	}
	return fmt.Sprintf("%s/stream?streams=%s", h.endpoint.BaseURL, strings.Join(streams, "/"))
}

func (h *Handler) headers() http.Header {
	hdr := http.Header{}
	hdr.Set("User-Agent", "fullon-ticker-service/1.0")
	if h.apiKey != "" {
		hdr.Set("X-API-Key", h.apiKey)
	}
	if h.apiSecret != "" {
		hdr.Set("X-API-Secret", h.apiSecret)
	}
	return hdr
}
