package breaker

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CircuitBreaker guards named operations against cascading failures. Callers
// check Allow before invoking the operation and report the outcome through
// RecordResult; an open breaker fails fast without touching the backend.
type CircuitBreaker interface {
	Allow(op string) bool
	RecordResult(op string, ok bool)
}

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// Config tunes the windowed breaker.
type Config struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	Window           time.Duration `yaml:"window"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

// DefaultConfig returns the breaker defaults: 5 failures within 30s opens
// the circuit, recovery is probed after 15s.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Window:           30 * time.Second,
		Cooldown:         15 * time.Second,
	}
}

type opState struct {
	state       state
	failures    int
	windowStart time.Time
	openedAt    time.Time
	probing     bool
}

// WindowedBreaker opens a named operation once its failure count crosses the
// threshold within the window. While open, Allow fails fast; after the
// cooldown a single probe call is let through and its result decides whether
// the circuit closes again.
type WindowedBreaker struct {
	mu     sync.Mutex
	cfg    Config
	ops    map[string]*opState
	logger *logrus.Logger
}

// NewWindowedBreaker creates a breaker with the given config. Zero values
// fall back to defaults.
func NewWindowedBreaker(cfg Config, logger *logrus.Logger) *WindowedBreaker {
	def := DefaultConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}

	return &WindowedBreaker{
		cfg:    cfg,
		ops:    make(map[string]*opState),
		logger: logger,
	}
}

// Allow reports whether the operation may proceed.
func (b *WindowedBreaker) Allow(op string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.get(op)

	switch st.state {
	case stateClosed:
		return true
	case stateOpen:
		if time.Since(st.openedAt) >= b.cfg.Cooldown {
			st.state = stateHalfOpen
			st.probing = true
			b.logger.WithField("operation", op).Info("Circuit breaker probing recovery")
			return true
		}
		return false
	case stateHalfOpen:
		// One probe in flight at a time.
		if st.probing {
			return false
		}
		st.probing = true
		return true
	}
	return false
}

// RecordResult reports the outcome of an allowed call.
func (b *WindowedBreaker) RecordResult(op string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.get(op)
	now := time.Now()

	if ok {
		if st.state == stateHalfOpen {
			b.logger.WithField("operation", op).Info("Circuit breaker closed after successful probe")
		}
		st.state = stateClosed
		st.failures = 0
		st.probing = false
		return
	}

	if st.state == stateHalfOpen {
		// Failed probe: back to open, restart the cooldown.
		st.state = stateOpen
		st.openedAt = now
		st.probing = false
		return
	}

	if now.Sub(st.windowStart) > b.cfg.Window {
		st.windowStart = now
		st.failures = 0
	}
	st.failures++

	if st.failures >= b.cfg.FailureThreshold {
		st.state = stateOpen
		st.openedAt = now
		b.logger.WithFields(logrus.Fields{
			"operation": op,
			"failures":  st.failures,
		}).Warn("Circuit breaker opened")
	}
}

func (b *WindowedBreaker) get(op string) *opState {
	st, exists := b.ops[op]
	if !exists {
		st = &opState{windowStart: time.Now()}
		b.ops[op] = st
	}
	return st
}

// NoopBreaker never opens. Used when the breaker is disabled and in tests.
type NoopBreaker struct{}

// Allow always permits the call.
func (NoopBreaker) Allow(string) bool { return true }

// RecordResult discards the outcome.
func (NoopBreaker) RecordResult(string, bool) {}
