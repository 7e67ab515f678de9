package metrics

import (
	"math"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return NewStore(logger)
}

func TestStore_SeedAndGet(t *testing.T) {
	store := newTestStore()
	store.Seed("openai", 0.002)

	snap, ok := store.Get("openai")
	require.True(t, ok)
	assert.Equal(t, 1.0, snap.SuccessRate)
	assert.Equal(t, 0.002, snap.CostPerUnit)
	assert.Equal(t, 0, snap.ErrorCount)

	_, ok = store.Get("unknown")
	assert.False(t, ok)
}

func TestStore_Update_LatencyEMA(t *testing.T) {
	store := newTestStore()
	store.Seed("openai", 0.002)

	store.Update("openai", 1000, true)
	snap, _ := store.Get("openai")
	// 0.8*0 + 0.2*1000
	assert.InDelta(t, 200.0, snap.AvgLatencyMs, 1e-9)

	store.Update("openai", 1000, true)
	snap, _ = store.Get("openai")
	// 0.8*200 + 0.2*1000
	assert.InDelta(t, 360.0, snap.AvgLatencyMs, 1e-9)

	// Failed attempts report latency 0 and must not move the average.
	store.Update("openai", 0, false)
	snap, _ = store.Get("openai")
	assert.InDelta(t, 360.0, snap.AvgLatencyMs, 1e-9)
}

func TestStore_Update_SuccessRateConverges(t *testing.T) {
	store := newTestStore()
	store.Seed("openai", 0.002)

	// Repeated failures drive the rate monotonically toward 0.
	prev := 1.0
	for i := 0; i < 50; i++ {
		store.Update("openai", 0, false)
		snap, _ := store.Get("openai")
		assert.Less(t, snap.SuccessRate, prev)
		assert.GreaterOrEqual(t, snap.SuccessRate, 0.0)
		prev = snap.SuccessRate
	}
	snap, _ := store.Get("openai")
	assert.Less(t, snap.SuccessRate, 0.01)

	// Repeated successes drive it back toward 1.
	for i := 0; i < 100; i++ {
		store.Update("openai", 500, true)
		s, _ := store.Get("openai")
		assert.LessOrEqual(t, s.SuccessRate, 1.0)
	}
	snap, _ = store.Get("openai")
	assert.Greater(t, snap.SuccessRate, 0.99)
}

func TestStore_Update_ErrorCount(t *testing.T) {
	store := newTestStore()
	store.Seed("openai", 0.002)

	for i := 1; i <= 3; i++ {
		store.Update("openai", 0, false)
		snap, _ := store.Get("openai")
		assert.Equal(t, i, snap.ErrorCount)
	}

	// Successes decrement back to zero and never go negative.
	for i := 0; i < 5; i++ {
		store.Update("openai", 100, true)
	}
	snap, _ := store.Get("openai")
	assert.Equal(t, 0, snap.ErrorCount)
	assert.False(t, snap.LastSuccess.IsZero())
}

func TestStore_Update_UnseededProvider(t *testing.T) {
	store := newTestStore()

	store.Update("surprise", 800, true)
	snap, ok := store.Get("surprise")
	require.True(t, ok)
	assert.InDelta(t, 160.0, snap.AvgLatencyMs, 1e-9)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store := newTestStore()
	store.Seed("openai", 0.002)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Update("openai", 0, false)
			}
		}()
	}
	wg.Wait()

	snap, _ := store.Get("openai")
	// Every failure increments exactly once; no lost updates.
	assert.Equal(t, 1000, snap.ErrorCount)
	assert.False(t, math.IsNaN(snap.SuccessRate))
}
