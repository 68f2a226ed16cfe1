// Package domaintest provides in-memory fakes of the external collaborator
// interfaces in internal/domain, for use by every other package's tests.
package domaintest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

// TickerStore is an in-memory domain.TickerStore keyed by exchange:symbol.
type TickerStore struct {
	mu      sync.Mutex
	ticks   map[string]domain.TickRecord
	writes  int
	FailNow bool
}

func NewTickerStore() *TickerStore {
	return &TickerStore{ticks: make(map[string]domain.TickRecord)}
}

func (s *TickerStore) SetTicker(_ context.Context, tick domain.TickRecord) error {
	if s.FailNow {
		return fmt.Errorf("ticker store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[tick.Exchange+":"+tick.Symbol] = tick
	s.writes++
	return nil
}

func (s *TickerStore) Get(exchange, symbol string) (domain.TickRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.ticks[exchange+":"+symbol]
	return t, ok
}

// Count returns the number of successful SetTicker calls, including writes
// that overwrote an earlier value for the same key.
func (s *TickerStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// ProcessRegistry is an in-memory domain.ProcessRegistry.
type ProcessRegistry struct {
	mu           sync.Mutex
	seq          int
	entries      map[string]processEntry
	updateCalls  int
	FailRegister bool
	FailUpdate   bool
}

type processEntry struct {
	Type      domain.ProcessType
	Component string
	Status    domain.ProcessStatus
	Message   string
}

func NewProcessRegistry() *ProcessRegistry {
	return &ProcessRegistry{entries: make(map[string]processEntry)}
}

func (r *ProcessRegistry) RegisterProcess(_ context.Context, processType domain.ProcessType, component string, _ map[string]string, message string, status domain.ProcessStatus) (string, error) {
	if r.FailRegister {
		return "", fmt.Errorf("registry unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := fmt.Sprintf("proc-%d", r.seq)
	r.entries[id] = processEntry{Type: processType, Component: component, Status: status, Message: message}
	return id, nil
}

func (r *ProcessRegistry) UpdateProcess(_ context.Context, processID string, status domain.ProcessStatus, message string) error {
	if r.FailUpdate {
		return fmt.Errorf("registry unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[processID]
	if !ok {
		return fmt.Errorf("unknown process id %s", processID)
	}
	entry.Status = status
	entry.Message = message
	r.entries[processID] = entry
	r.updateCalls++
	return nil
}

func (r *ProcessRegistry) Entry(id string) (domain.ProcessStatus, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return e.Status, e.Message, ok
}

// EntryCount returns the number of distinct process ids ever registered.
func (r *ProcessRegistry) EntryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// UpdateCount returns the number of successful UpdateProcess calls.
func (r *ProcessRegistry) UpdateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateCalls
}

// ConfigStore is a static in-memory domain.ConfigStore.
type ConfigStore struct {
	Symbols []domain.SymbolRef
	Err     error
}

func NewConfigStore(symbols ...domain.SymbolRef) *ConfigStore {
	return &ConfigStore{Symbols: symbols}
}

func (c *ConfigStore) ListAllSymbols(_ context.Context) ([]domain.SymbolRef, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Symbols, nil
}

// CredentialResolver is a static in-memory domain.CredentialResolver.
type CredentialResolver struct {
	Creds map[int][2]string
	Err   error
}

func NewCredentialResolver() *CredentialResolver {
	return &CredentialResolver{Creds: make(map[int][2]string)}
}

func (c *CredentialResolver) Resolve(_ context.Context, exchangeID int) (string, string, error) {
	if c.Err != nil {
		return "", "", c.Err
	}
	pair, ok := c.Creds[exchangeID]
	if !ok {
		return "", "", nil
	}
	return pair[0], pair[1], nil
}
