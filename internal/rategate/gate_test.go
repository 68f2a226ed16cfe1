package rategate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

func TestGate_FirstAdmitAlwaysSucceeds(t *testing.T) {
	g := New(30 * time.Second)
	key := domain.NewSubscriptionKey("kraken", "BTC/USD")

	assert.True(t, g.Admit(key, time.Now()))
}

func TestGate_RejectsWithinWindow(t *testing.T) {
	g := New(30 * time.Second)
	key := domain.NewSubscriptionKey("kraken", "BTC/USD")
	start := time.Now()

	assert.True(t, g.Admit(key, start))
	assert.False(t, g.Admit(key, start.Add(10*time.Second)))
	assert.False(t, g.Admit(key, start.Add(29*time.Second)))
}

func TestGate_AdmitsAfterWindowElapses(t *testing.T) {
	g := New(30 * time.Second)
	key := domain.NewSubscriptionKey("kraken", "BTC/USD")
	start := time.Now()

	assert.True(t, g.Admit(key, start))
	assert.True(t, g.Admit(key, start.Add(31*time.Second)))
}

func TestGate_IndependentKeys(t *testing.T) {
	g := New(30 * time.Second)
	btc := domain.NewSubscriptionKey("kraken", "BTC/USD")
	eth := domain.NewSubscriptionKey("kraken", "ETH/USD")
	now := time.Now()

	assert.True(t, g.Admit(btc, now))
	assert.False(t, g.Admit(btc, now))
	assert.True(t, g.Admit(eth, now))
}

func TestGate_HundredTicksOneAdmission(t *testing.T) {
	g := New(30 * time.Second)
	key := domain.NewSubscriptionKey("kraken", "BTC/USD")
	start := time.Now()

	admitted := 0
	for i := 0; i < 100; i++ {
		now := start.Add(time.Duration(i) * 100 * time.Millisecond)
		if g.Admit(key, now) {
			admitted++
		}
	}

	assert.Equal(t, 1, admitted)
}
