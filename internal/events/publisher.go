package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

// Notifier is the lifecycle-event sink daemon and collector report to. It is
// deliberately narrow and optional: a nil Notifier (or the NoopNotifier
// below) means "no one is listening", not an error.
type Notifier interface {
	PublishStatus(ctx context.Context, status domain.DaemonStatus) error
	PublishSessionFailure(ctx context.Context, exchange, symbol, reason string) error
}

// NoopNotifier discards every event. Used when no NATS connection was
// configured.
type NoopNotifier struct{}

func (NoopNotifier) PublishStatus(context.Context, domain.DaemonStatus) error { return nil }
func (NoopNotifier) PublishSessionFailure(context.Context, string, string, string) error {
	return nil
}

// statusEvent and failureEvent are the wire payloads. No consumer outside
// this process is assumed; the shape is whatever is convenient to decode.
type statusEvent struct {
	Status    domain.DaemonStatus `json:"status"`
	Timestamp int64               `json:"timestamp"`
}

type failureEvent struct {
	Exchange  string `json:"exchange"`
	Symbol    string `json:"symbol"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher is the production Notifier, backed by a plain core-NATS
// connection. No JetStream context, no durable stream: lifecycle events are
// ephemeral broadcast, never replayed.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.SugaredLogger
}

// NewPublisher wraps an already-connected *nats.Conn.
func NewPublisher(nc *nats.Conn, logger *zap.SugaredLogger) *Publisher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Publisher{nc: nc, logger: logger}
}

// PublishStatus broadcasts a daemon state transition. Publish failure is
// logged and returned; the daemon ignores the returned error, so a dropped
// lifecycle event never blocks the daemon operation that triggered it.
func (p *Publisher) PublishStatus(_ context.Context, status domain.DaemonStatus) error {
	payload, err := json.Marshal(statusEvent{Status: status, Timestamp: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	if err := p.nc.Publish(SubjectDaemonStatus, payload); err != nil {
		p.logger.Warnf("publish daemon status event failed: %v", err)
		return err
	}
	return nil
}

// PublishSessionFailure broadcasts one isolated subscribe/session failure.
func (p *Publisher) PublishSessionFailure(_ context.Context, exchange, symbol, reason string) error {
	payload, err := json.Marshal(failureEvent{Exchange: exchange, Symbol: symbol, Reason: reason, Timestamp: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("marshal session failure event: %w", err)
	}
	if err := p.nc.Publish(SubjectSessionFailure(exchange), payload); err != nil {
		p.logger.Warnf("publish session failure event failed: %v", err)
		return err
	}
	return nil
}
