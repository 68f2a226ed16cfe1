// Package domain holds the value types and external collaborator interfaces
// the ticker orchestrator is built on. Nothing in here imports a concrete
// exchange, cache, or database library — those live behind the interfaces
// in collaborators.go.
package domain

import (
	"errors"
	"fmt"
)

// TickRecord is one decoded price update delivered by the adapter. It is
// transient: owned only by the in-flight callback, never stored by the core.
type TickRecord struct {
	Exchange string
	Symbol   string
	Price    float64
	Bid      *float64
	Ask      *float64
	Volume   *float64
	Time     int64 // unix seconds
}

// SymbolRef describes a target subscription: which exchange, which symbol,
// and the stable id used to look up credentials for that exchange.
type SymbolRef struct {
	ExchangeName string
	ExchangeID   int
	Symbol       string
}

// Validate rejects a SymbolRef missing any of the fields processTicker
// requires.
func (s SymbolRef) Validate() error {
	if s.ExchangeName == "" {
		return fmt.Errorf("%w: missing exchangeName", ErrInvalidInput)
	}
	if s.Symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrInvalidInput)
	}
	if s.ExchangeID == 0 {
		return fmt.Errorf("%w: missing exchangeId", ErrInvalidInput)
	}
	return nil
}

// Key returns the canonical SubscriptionKey for this SymbolRef.
func (s SymbolRef) Key() SubscriptionKey {
	return NewSubscriptionKey(s.ExchangeName, s.Symbol)
}

// SubscriptionKey is the canonical identity of an active subscription:
// "exchangeName:symbol". It is the key used by ActiveSet, ProcessIDMap, and
// the RateGate.
type SubscriptionKey string

// NewSubscriptionKey builds the canonical key for an (exchange, symbol) pair.
func NewSubscriptionKey(exchangeName, symbol string) SubscriptionKey {
	return SubscriptionKey(exchangeName + ":" + symbol)
}

// DaemonStatus is the three-valued lifecycle tag. Never compare collector
// presence without also checking this, and vice versa — see Daemon.consistent.
type DaemonStatus string

const (
	StatusStopped DaemonStatus = "stopped"
	StatusRunning DaemonStatus = "running"
	StatusErrored DaemonStatus = "error"
)

// ProcessType is the closed enum the process registry groups entries by.
type ProcessType string

// ProcessTypeTick is the process type of the per-symbol entries the
// collector registers. The daemon's own entry uses daemon.ProcessTypeDaemon.
const ProcessTypeTick ProcessType = "tick"

// ProcessStatus is the closed enum of process-registry health states.
type ProcessStatus string

const (
	ProcessStarting ProcessStatus = "starting"
	ProcessRunning  ProcessStatus = "running"
	ProcessError    ProcessStatus = "error"
	ProcessStopped  ProcessStatus = "stopped"
)

// Sentinel errors callers can match with errors.Is. Wrap with
// fmt.Errorf("%w: ...") at the call site to add detail without losing that.
var (
	// ErrInvalidInput marks a malformed SymbolRef passed to ProcessTicker.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInconsistentState marks the collector-present/status-not-running
	// programmer-error state. Never propagated to callers; logged only.
	ErrInconsistentState = errors.New("inconsistent daemon state")
)
