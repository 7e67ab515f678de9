package breaker

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestBreaker(cfg Config) *WindowedBreaker {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return NewWindowedBreaker(cfg, logger)
}

func TestWindowedBreaker_OpensAtThreshold(t *testing.T) {
	b := newTestBreaker(Config{FailureThreshold: 3, Window: time.Minute, Cooldown: time.Minute})

	for i := 0; i < 2; i++ {
		assert.True(t, b.Allow("gateway.complete"))
		b.RecordResult("gateway.complete", false)
	}
	assert.True(t, b.Allow("gateway.complete"))
	b.RecordResult("gateway.complete", false)

	// Third failure within the window opens the circuit.
	assert.False(t, b.Allow("gateway.complete"))
}

func TestWindowedBreaker_SuccessResetsFailures(t *testing.T) {
	b := newTestBreaker(Config{FailureThreshold: 3, Window: time.Minute, Cooldown: time.Minute})

	b.RecordResult("op", false)
	b.RecordResult("op", false)
	b.RecordResult("op", true)
	b.RecordResult("op", false)
	b.RecordResult("op", false)

	// Two failures since the last success, still below threshold.
	assert.True(t, b.Allow("op"))
}

func TestWindowedBreaker_ProbeAfterCooldown(t *testing.T) {
	b := newTestBreaker(Config{FailureThreshold: 1, Window: time.Minute, Cooldown: 10 * time.Millisecond})

	b.RecordResult("op", false)
	assert.False(t, b.Allow("op"))

	time.Sleep(20 * time.Millisecond)

	// One probe allowed, concurrent calls still rejected.
	assert.True(t, b.Allow("op"))
	assert.False(t, b.Allow("op"))

	// Successful probe closes the circuit.
	b.RecordResult("op", true)
	assert.True(t, b.Allow("op"))
}

func TestWindowedBreaker_FailedProbeReopens(t *testing.T) {
	b := newTestBreaker(Config{FailureThreshold: 1, Window: time.Minute, Cooldown: 10 * time.Millisecond})

	b.RecordResult("op", false)
	time.Sleep(20 * time.Millisecond)

	assert.True(t, b.Allow("op"))
	b.RecordResult("op", false)

	// Back to open; cooldown restarts.
	assert.False(t, b.Allow("op"))
}

func TestWindowedBreaker_OperationsAreIndependent(t *testing.T) {
	b := newTestBreaker(Config{FailureThreshold: 1, Window: time.Minute, Cooldown: time.Minute})

	b.RecordResult("routing.select", false)
	assert.False(t, b.Allow("routing.select"))
	assert.True(t, b.Allow("gateway.complete"))
}

func TestNoopBreaker(t *testing.T) {
	var b CircuitBreaker = NoopBreaker{}
	for i := 0; i < 10; i++ {
		b.RecordResult("op", false)
	}
	assert.True(t, b.Allow("op"))
}
