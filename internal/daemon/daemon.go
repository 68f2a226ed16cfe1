// Package daemon implements the externally visible lifecycle object: the
// three-valued state machine, start/stop/processTicker, and the health
// surface built on top of a collector.LiveCollector.
package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/collector"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/events"
)

// ProcessTypeDaemon is the process-registry type used for the daemon's own
// lifecycle entry, distinct from domain.ProcessTypeTick which is used for
// per-symbol entries owned by the collector.
const ProcessTypeDaemon domain.ProcessType = "daemon"

// Deps bundles every external collaborator the daemon needs. The collaborator
// fields are required. Logger defaults to a no-op logger when nil, Events to
// a no-op sink when nil, and GateWindow to 30 seconds when not positive.
type Deps struct {
	Config     domain.ConfigStore
	Adapters   domain.AdapterFactory
	Resolver   domain.CredentialResolver
	Tickers    domain.TickerStore
	Registry   domain.ProcessRegistry
	GateWindow time.Duration
	// ShutdownTimeout bounds how long Stop waits for collector teardown.
	// Zero means unbounded, matching the default documented configuration
	// surface.
	ShutdownTimeout time.Duration
	Logger          *zap.SugaredLogger
	// Events receives lifecycle notifications. Defaults to a no-op sink.
	Events events.Notifier
}

// Daemon is the top-level orchestrator. One Daemon owns at most one
// LiveCollector at a time; see consistent for the invariant linking status
// to collector presence.
type Daemon struct {
	deps Deps

	mu        sync.RWMutex
	status    domain.DaemonStatus
	collector *collector.LiveCollector
	processID string
}

// New constructs a Daemon in the Stopped state. It does not contact any
// external collaborator until Start or ProcessTicker is called.
func New(deps Deps) *Daemon {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	if deps.GateWindow <= 0 {
		deps.GateWindow = 30 * time.Second
	}
	if deps.Events == nil {
		deps.Events = events.NoopNotifier{}
	}
	return &Daemon{deps: deps, status: domain.StatusStopped}
}

// newCollector builds a LiveCollector wired with the daemon's notifier, so
// session and subscription failures reach the same event sink as daemon
// state transitions.
func (d *Daemon) newCollector() *collector.LiveCollector {
	c := collector.New(d.deps.Adapters, d.deps.Resolver, d.deps.Tickers, d.deps.Registry, d.deps.GateWindow, d.deps.Logger)
	c.SetNotifier(d.deps.Events)
	return c
}

// consistent reports whether the (status, collector-present) pair is one of
// the three valid combinations. A false result marks the inconsistent
// configuration: collector present but status not Running.
func (d *Daemon) consistent() bool {
	present := d.collector != nil
	switch d.status {
	case domain.StatusRunning:
		return present
	case domain.StatusStopped, domain.StatusErrored:
		return !present
	default:
		return false
	}
}

// Start is idempotent: a no-op if already Running. It loads the full symbol
// set from the configuration store, constructs a LiveCollector around it,
// registers the daemon-level process entry, and instructs the collector to
// open every session. A failure before startAll transitions the daemon to
// Errored and propagates; partial subscription failures during startAll are
// isolated and never reach here as an error.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.status == domain.StatusRunning {
		return nil
	}

	symbols, err := d.deps.Config.ListAllSymbols(ctx)
	if err != nil {
		d.status = domain.StatusErrored
		d.deps.Events.PublishStatus(ctx, domain.StatusErrored)
		return fmt.Errorf("load symbols: %w", err)
	}

	id, err := d.deps.Registry.RegisterProcess(ctx, ProcessTypeDaemon, "ticker-daemon", nil, "starting ticker daemon", domain.ProcessStarting)
	if err != nil {
		d.status = domain.StatusErrored
		d.deps.Events.PublishStatus(ctx, domain.StatusErrored)
		return fmt.Errorf("register daemon process: %w", err)
	}
	d.processID = id

	d.collector = d.newCollector()
	d.collector.StartAll(ctx, symbols)

	d.status = domain.StatusRunning
	if err := d.deps.Registry.UpdateProcess(ctx, d.processID, domain.ProcessRunning, fmt.Sprintf("collecting %d symbols", len(symbols))); err != nil {
		d.deps.Logger.Warnf("daemon process update failed: %v", err)
	}
	d.deps.Events.PublishStatus(ctx, domain.StatusRunning)
	return nil
}

// Stop is idempotent: a no-op if already Stopped. It tears down the
// collector, deregisters the daemon entry, and drops the collector
// reference. Teardown errors are logged, never raised.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.collector == nil {
		d.status = domain.StatusStopped
		return nil
	}

	shutdownCtx := ctx
	if d.deps.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, d.deps.ShutdownTimeout)
		defer cancel()
	}

	if err := d.collector.StopAll(shutdownCtx); err != nil {
		d.deps.Logger.Warnf("collector teardown reported errors: %v", err)
	}

	if d.processID != "" {
		if err := d.deps.Registry.UpdateProcess(ctx, d.processID, domain.ProcessStopped, "daemon stopped"); err != nil {
			d.deps.Logger.Warnf("daemon process deregistration failed: %v", err)
		}
	}

	d.collector = nil
	d.processID = ""
	d.status = domain.StatusStopped
	d.deps.Events.PublishStatus(ctx, domain.StatusStopped)
	return nil
}

// ProcessTicker dispatches a single SymbolRef according to the three-valued
// check: both collector presence and the status tag must be consulted, not
// either alone.
func (d *Daemon) ProcessTicker(ctx context.Context, ref domain.SymbolRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.consistent() {
		d.deps.Logger.Errorw("inconsistent daemon state observed", "status", d.status, "collectorPresent", d.collector != nil)
		return nil
	}

	switch d.status {
	case domain.StatusStopped, domain.StatusErrored:
		d.collector = d.newCollector()
		d.status = domain.StatusRunning
		d.deps.Events.PublishStatus(ctx, domain.StatusRunning)
		if err := d.collector.StartOne(ctx, ref); err != nil {
			d.deps.Logger.Warnf("cold-start subscribe failed for %s: %v", ref.Key(), err)
		}
		return nil
	case domain.StatusRunning:
		if d.collector.IsCollecting(ref) {
			return nil
		}
		if err := d.collector.StartOne(ctx, ref); err != nil {
			d.deps.Logger.Warnf("subscribe failed for %s: %v", ref.Key(), err)
		}
		return nil
	default:
		return nil
	}
}

// Health is the snapshot returned by GetHealth.
type Health struct {
	Status        domain.DaemonStatus
	Running       bool
	ProcessID     string
	CollectorOpen bool
	Exchanges     []string
	ActiveCount   int
}

// GetHealth returns a point-in-time snapshot. It holds the daemon lock only
// long enough to copy the status fields and a collector reference; the
// collector's own accessors take their own lock.
func (d *Daemon) GetHealth() Health {
	d.mu.RLock()
	status := d.status
	processID := d.processID
	coll := d.collector
	d.mu.RUnlock()

	h := Health{
		Status:        status,
		Running:       status == domain.StatusRunning,
		ProcessID:     processID,
		CollectorOpen: coll != nil,
	}
	if coll != nil {
		h.Exchanges = coll.ExchangeNames()
		h.ActiveCount = coll.ActiveCount()
	}
	return h
}
