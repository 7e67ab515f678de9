package metrics

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Decay factors for the exponential moving averages. Latency tracks recent
// samples aggressively; success rate moves more slowly so a single failure
// does not tank an otherwise healthy provider.
const (
	latencyDecay = 0.8
	successDecay = 0.9
)

// Snapshot is a point-in-time copy of a provider's health and cost record.
type Snapshot struct {
	AvgLatencyMs      float64   `json:"avg_latency_ms"`
	SuccessRate       float64   `json:"success_rate"`
	CostPerUnit       float64   `json:"cost_per_unit"`
	RequestsPerMinute int       `json:"requests_per_minute"`
	ErrorCount        int       `json:"error_count"`
	LastSuccess       time.Time `json:"last_success"`
}

type record struct {
	Snapshot

	// rolling per-minute request counter, reset lazily
	minuteStart time.Time
	minuteCount int
}

// Store holds one mutable health/cost record per provider. All mutation goes
// through Update so the EMA and error-count rules cannot be bypassed; the
// store is safe for concurrent use by in-flight completions.
type Store struct {
	mu        sync.RWMutex
	providers map[string]*record
	logger    *logrus.Logger
}

// NewStore creates an empty metrics store.
func NewStore(logger *logrus.Logger) *Store {
	return &Store{
		providers: make(map[string]*record),
		logger:    logger,
	}
}

// Seed creates a record for a known provider with optimistic initial values.
// Called once at startup for every configured provider; seeding an existing
// provider is a no-op.
func (s *Store) Seed(provider string, costPerUnit float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.providers[provider]; exists {
		return
	}

	s.providers[provider] = &record{
		Snapshot: Snapshot{
			SuccessRate: 1.0,
			CostPerUnit: costPerUnit,
		},
		minuteStart: time.Now(),
	}
}

// Update applies one completion attempt outcome to the provider's record.
// A latencyMs of 0 (failed attempts) leaves the latency average untouched.
func (s *Store) Update(provider string, latencyMs float64, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.providers[provider]
	if !exists {
		// Providers are seeded at startup; an unseeded update means a
		// misconfigured candidate list. Track it anyway.
		s.logger.WithField("provider", provider).Warn("Metrics update for unseeded provider")
		rec = &record{
			Snapshot:    Snapshot{SuccessRate: 1.0},
			minuteStart: time.Now(),
		}
		s.providers[provider] = rec
	}

	now := time.Now()

	if latencyMs > 0 {
		rec.AvgLatencyMs = latencyDecay*rec.AvgLatencyMs + (1-latencyDecay)*latencyMs
	}

	sample := 0.0
	if success {
		sample = 1.0
	}
	rec.SuccessRate = successDecay*rec.SuccessRate + (1-successDecay)*sample

	if success {
		if rec.ErrorCount > 0 {
			rec.ErrorCount--
		}
		rec.LastSuccess = now
	} else {
		rec.ErrorCount++
	}

	if now.Sub(rec.minuteStart) >= time.Minute {
		rec.minuteStart = now
		rec.minuteCount = 0
	}
	rec.minuteCount++
	rec.RequestsPerMinute = rec.minuteCount
}

// Get returns a snapshot of the provider's record. The second return value
// is false for unknown providers; callers must treat that as score 0.
func (s *Store) Get(provider string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.providers[provider]
	if !exists {
		return Snapshot{}, false
	}
	return rec.Snapshot, true
}

// Providers returns the ids of all tracked providers.
func (s *Store) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	return names
}
