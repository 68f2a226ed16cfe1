// Package collector implements the LiveCollector: the aggregate over all
// ExchangeSessions, the active subscription set, and the per-tick callback
// pipeline's two-tier write policy.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/events"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/rategate"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/session"
)

// LiveCollector maintains SessionMap, ActiveSet, ProcessIDMap, and the
// RateGate. It is the heart of the orchestrator: StartAll/StartOne never let
// one symbol's or one exchange's failure stop the others.
type LiveCollector struct {
	factory  domain.AdapterFactory
	resolver domain.CredentialResolver
	tickers  domain.TickerStore
	registry domain.ProcessRegistry
	gate     *rategate.Gate
	logger   *zap.SugaredLogger
	notifier events.Notifier

	mu         sync.RWMutex
	sessions   map[string]*session.ExchangeSession
	active     map[domain.SubscriptionKey]struct{}
	processIDs map[domain.SubscriptionKey]string
	symbolInfo map[domain.SubscriptionKey]domain.SymbolRef
}

// New constructs an empty LiveCollector. Callers then call StartAll and/or
// StartOne to begin collecting.
func New(factory domain.AdapterFactory, resolver domain.CredentialResolver, tickers domain.TickerStore, registry domain.ProcessRegistry, gateWindow time.Duration, logger *zap.SugaredLogger) *LiveCollector {
	return &LiveCollector{
		factory:    factory,
		resolver:   resolver,
		tickers:    tickers,
		registry:   registry,
		gate:       rategate.New(gateWindow),
		logger:     logger,
		notifier:   events.NoopNotifier{},
		sessions:   make(map[string]*session.ExchangeSession),
		active:     make(map[domain.SubscriptionKey]struct{}),
		processIDs: make(map[domain.SubscriptionKey]string),
		symbolInfo: make(map[domain.SubscriptionKey]domain.SymbolRef),
	}
}

// SetNotifier attaches a lifecycle-event sink. Session and subscription
// failures are published there in addition to being logged. Passing nil
// restores the no-op notifier.
func (c *LiveCollector) SetNotifier(n events.Notifier) {
	if n == nil {
		n = events.NoopNotifier{}
	}
	c.mu.Lock()
	c.notifier = n
	c.mu.Unlock()
}

// StartAll groups symbols by exchange and subscribes every one. A failure to
// construct a session for one exchange, or to subscribe one symbol, is
// isolated: every other exchange and symbol proceeds regardless.
func (c *LiveCollector) StartAll(ctx context.Context, symbols []domain.SymbolRef) {
	groups := groupByExchange(symbols)
	for exchangeName, group := range groups {
		sess, err := c.sessionFor(ctx, group[0])
		if err != nil {
			c.logger.Warnf("session construction failed for exchange %s, skipping %d symbols: %v", exchangeName, len(group), err)
			c.notifier.PublishSessionFailure(ctx, exchangeName, "", err.Error())
			continue
		}
		for _, ref := range group {
			c.startSymbol(ctx, sess, ref)
		}
	}
}

// StartOne is idempotent: if the symbol is already collecting, it is a
// no-op. Otherwise it ensures the exchange's session exists and subscribes.
func (c *LiveCollector) StartOne(ctx context.Context, ref domain.SymbolRef) error {
	if c.IsCollecting(ref) {
		return nil
	}

	sess, err := c.sessionFor(ctx, ref)
	if err != nil {
		return fmt.Errorf("session construction failed for exchange %s: %w", ref.ExchangeName, err)
	}

	c.startSymbol(ctx, sess, ref)
	return nil
}

// IsCollecting is a pure membership test on the active set.
func (c *LiveCollector) IsCollecting(ref domain.SymbolRef) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.active[ref.Key()]
	return ok
}

// ActiveCount returns the size of the active subscription set.
func (c *LiveCollector) ActiveCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.active)
}

// ActiveSymbols returns a snapshot of the SymbolRefs currently collecting.
func (c *LiveCollector) ActiveSymbols() []domain.SymbolRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	refs := make([]domain.SymbolRef, 0, len(c.symbolInfo))
	for _, ref := range c.symbolInfo {
		refs = append(refs, ref)
	}
	return refs
}

// ExchangeNames returns the set of exchanges with an open session.
func (c *LiveCollector) ExchangeNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.sessions))
	for name := range c.sessions {
		names = append(names, name)
	}
	return names
}

// StopAll tears the collector down: clears the active set, releases adapter
// resources, and deregisters every outstanding process entry. Every
// teardown step runs even if an earlier one failed; errors are aggregated
// and returned together rather than abandoning teardown on the first one.
func (c *LiveCollector) StopAll(ctx context.Context) error {
	c.mu.Lock()
	ids := make(map[domain.SubscriptionKey]string, len(c.processIDs))
	for k, v := range c.processIDs {
		ids[k] = v
	}
	c.active = make(map[domain.SubscriptionKey]struct{})
	c.processIDs = make(map[domain.SubscriptionKey]string)
	c.symbolInfo = make(map[domain.SubscriptionKey]domain.SymbolRef)
	c.mu.Unlock()

	var errs error

	for key, id := range ids {
		if err := c.registry.UpdateProcess(ctx, id, domain.ProcessStopped, "collector stopped"); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("deregister %s: %w", key, err))
		}
	}

	if err := c.factory.Shutdown(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("adapter factory shutdown: %w", err))
	}

	c.mu.Lock()
	c.sessions = make(map[string]*session.ExchangeSession)
	c.mu.Unlock()

	return errs
}

// sessionFor returns the existing session for ref's exchange, or creates one
// lazily. At most one session per exchange is ever created.
func (c *LiveCollector) sessionFor(ctx context.Context, ref domain.SymbolRef) (*session.ExchangeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.sessions[ref.ExchangeName]; ok {
		return sess, nil
	}

	sess, err := session.New(ctx, domain.ExchangeDescriptor{Name: ref.ExchangeName, ID: ref.ExchangeID}, c.resolver, c.factory, c.logger)
	if err != nil {
		return nil, err
	}
	c.sessions[ref.ExchangeName] = sess
	return sess, nil
}

// startSymbol registers a process entry, subscribes via the adapter, and on
// success adds the key to the active set. Failure is logged and isolated:
// the caller continues with the next symbol.
func (c *LiveCollector) startSymbol(ctx context.Context, sess *session.ExchangeSession, ref domain.SymbolRef) {
	key := ref.Key()
	component := string(key)

	id, err := c.registry.RegisterProcess(ctx, domain.ProcessTypeTick, component, map[string]string{
		"exchange": ref.ExchangeName,
		"symbol":   ref.Symbol,
	}, "starting live ticker collection", domain.ProcessStarting)
	if err != nil {
		c.logger.Warnf("failed to register process for %s: %v", key, err)
		return
	}

	if err := sess.Subscribe(ctx, ref.Symbol, c.callbackFor(ref.ExchangeName)); err != nil {
		c.logger.Warnf("failed to subscribe %s: %v", key, err)
		c.notifier.PublishSessionFailure(ctx, ref.ExchangeName, ref.Symbol, err.Error())
		return
	}

	c.mu.Lock()
	c.active[key] = struct{}{}
	c.processIDs[key] = id
	c.symbolInfo[key] = ref
	c.mu.Unlock()
}

// callbackFor builds the shared callback for one exchange. It implements the
// two-tier write policy: the ticker-store write happens on every call; the
// registry update happens only when the rate gate admits.
func (c *LiveCollector) callbackFor(exchangeName string) domain.TickCallback {
	return func(ctx context.Context, tick domain.TickRecord) {
		if tick.Exchange == "" {
			tick.Exchange = exchangeName
		}

		if err := c.tickers.SetTicker(ctx, tick); err != nil {
			c.logger.Warnf("ticker store write failed for %s:%s: %v", tick.Exchange, tick.Symbol, err)
		}

		key := domain.NewSubscriptionKey(tick.Exchange, tick.Symbol)
		if !c.gate.Admit(key, time.Now()) {
			return
		}

		c.mu.RLock()
		id, ok := c.processIDs[key]
		c.mu.RUnlock()
		if !ok {
			return
		}

		msg := fmt.Sprintf("received tick at %d", tick.Time)
		if err := c.registry.UpdateProcess(ctx, id, domain.ProcessRunning, msg); err != nil {
			c.logger.Warnf("registry update failed for %s: %v", key, err)
		}
	}
}

func groupByExchange(symbols []domain.SymbolRef) map[string][]domain.SymbolRef {
	groups := make(map[string][]domain.SymbolRef)
	for _, s := range symbols {
		groups[s.ExchangeName] = append(groups[s.ExchangeName], s)
	}
	return groups
}
