// Package rategate admits at most one event per window per key.
package rategate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

// Gate is a per-key throttle. Admit is safe to call concurrently from
// different goroutines for different (or the same) keys. Correctness for the
// same key under concurrent callers comes from rate.Limiter's own internal
// locking — there is no coarse lock over the whole gate on the admit path,
// only on first-seen-key limiter creation.
type Gate struct {
	window  time.Duration
	limiter sync.Map // SubscriptionKey -> *rate.Limiter
}

// New returns a Gate that admits at most one event per window per key.
func New(window time.Duration) *Gate {
	return &Gate{window: window}
}

// Admit returns true and records the admission iff at least window has
// elapsed since the last admission for key, or key has never been admitted
// before. The first call for any key always admits.
func (g *Gate) Admit(key domain.SubscriptionKey, now time.Time) bool {
	limiter := g.limiterFor(key)
	return limiter.AllowN(now, 1)
}

func (g *Gate) limiterFor(key domain.SubscriptionKey) *rate.Limiter {
	if v, ok := g.limiter.Load(key); ok {
		return v.(*rate.Limiter)
	}
	fresh := rate.NewLimiter(rate.Every(g.window), 1)
	actual, _ := g.limiter.LoadOrStore(key, fresh)
	return actual.(*rate.Limiter)
}
