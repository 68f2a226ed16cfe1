// Package rediskv is the Redis-backed implementation of domain.TickerStore
// and domain.ProcessRegistry: a last-writer-wins latest-value hash for
// ticks, and a key-per-process health directory.
package rediskv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

// TickerStore keeps only the most recent TickRecord per (exchange, symbol)
// in a single Redis hash, one field per subscription key.
type TickerStore struct {
	rdb *redis.Client
	key string
}

// NewTickerStore wraps an already-connected *redis.Client. key is the name
// of the hash every SetTicker call writes into; callers typically pass one
// shared key such as "ticker:latest".
func NewTickerStore(rdb *redis.Client, key string) *TickerStore {
	return &TickerStore{rdb: rdb, key: key}
}

// record is the JSON shape stored in the hash field; it is not the wire
// format, just a convenient encoding the store owns.
type record struct {
	Exchange string   `json:"exchange"`
	Symbol   string   `json:"symbol"`
	Price    float64  `json:"price"`
	Bid      *float64 `json:"bid,omitempty"`
	Ask      *float64 `json:"ask,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Time     int64    `json:"time"`
}

// SetTicker writes tick into the hash, keyed by "exchange:symbol". Safe
// under concurrent writers: HSET on a single field is atomic in Redis, and
// whichever call reaches the server last wins, which is the semantics the
// core expects.
func (s *TickerStore) SetTicker(ctx context.Context, tick domain.TickRecord) error {
	payload, err := json.Marshal(record{
		Exchange: tick.Exchange,
		Symbol:   tick.Symbol,
		Price:    tick.Price,
		Bid:      tick.Bid,
		Ask:      tick.Ask,
		Volume:   tick.Volume,
		Time:     tick.Time,
	})
	if err != nil {
		return fmt.Errorf("marshal tick: %w", err)
	}

	field := string(domain.NewSubscriptionKey(tick.Exchange, tick.Symbol))
	return s.rdb.HSet(ctx, s.key, field, payload).Err()
}

// GetTicker reads the latest value for (exchange, symbol). Mainly useful
// for tests and diagnostics; the orchestrator core never reads its own
// writes back.
func (s *TickerStore) GetTicker(ctx context.Context, exchange, symbol string) (domain.TickRecord, error) {
	field := string(domain.NewSubscriptionKey(exchange, symbol))
	raw, err := s.rdb.HGet(ctx, s.key, field).Result()
	if err != nil {
		return domain.TickRecord{}, fmt.Errorf("get ticker %s: %w", field, err)
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.TickRecord{}, fmt.Errorf("unmarshal ticker %s: %w", field, err)
	}
	return domain.TickRecord{
		Exchange: rec.Exchange,
		Symbol:   rec.Symbol,
		Price:    rec.Price,
		Bid:      rec.Bid,
		Ask:      rec.Ask,
		Volume:   rec.Volume,
		Time:     rec.Time,
	}, nil
}

// ProcessRegistry is a key-per-process health directory: one Redis string
// key per process id, holding type/component/params/status/message as JSON.
type ProcessRegistry struct {
	rdb    *redis.Client
	prefix string
}

// NewProcessRegistry wraps an already-connected *redis.Client. Every
// process gets its own key "prefix:<uuid>".
func NewProcessRegistry(rdb *redis.Client, prefix string) *ProcessRegistry {
	return &ProcessRegistry{rdb: rdb, prefix: prefix}
}

type processFields struct {
	Type      string            `json:"type"`
	Component string            `json:"component"`
	Params    map[string]string `json:"params"`
	Status    string            `json:"status"`
	Message   string            `json:"message"`
}

func (r *ProcessRegistry) key(id string) string {
	return r.prefix + ":" + id
}

// RegisterProcess generates a fresh process id and writes its initial
// fields as a JSON blob under a dedicated string key.
func (r *ProcessRegistry) RegisterProcess(ctx context.Context, processType domain.ProcessType, component string, params map[string]string, message string, status domain.ProcessStatus) (string, error) {
	id := uuid.NewString()

	payload, err := json.Marshal(processFields{
		Type:      string(processType),
		Component: component,
		Params:    params,
		Status:    string(status),
		Message:   message,
	})
	if err != nil {
		return "", fmt.Errorf("marshal process entry: %w", err)
	}

	if err := r.rdb.Set(ctx, r.key(id), payload, 0).Err(); err != nil {
		return "", fmt.Errorf("register process %s: %w", component, err)
	}
	return id, nil
}

// UpdateProcess rewrites the status and message fields of an existing
// process entry, preserving type/component/params.
func (r *ProcessRegistry) UpdateProcess(ctx context.Context, processID string, status domain.ProcessStatus, message string) error {
	raw, err := r.rdb.Get(ctx, r.key(processID)).Result()
	if err != nil {
		return fmt.Errorf("load process %s: %w", processID, err)
	}

	var fields processFields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return fmt.Errorf("unmarshal process %s: %w", processID, err)
	}
	fields.Status = string(status)
	fields.Message = message

	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal process %s: %w", processID, err)
	}

	return r.rdb.Set(ctx, r.key(processID), payload, 0).Err()
}
