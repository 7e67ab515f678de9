package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors holds the Prometheus collectors for the routing engine. A nil
// *Collectors is valid and records nothing, so wiring stays optional.
type Collectors struct {
	selections     *prometheus.CounterVec
	attempts       *prometheus.CounterVec
	attemptLatency *prometheus.HistogramVec
	cacheEvents    *prometheus.CounterVec
}

// NewCollectors registers the routing collectors with reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)

	return &Collectors{
		selections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_router_selections_total",
				Help: "Routing decisions made, by strategy and source",
			},
			[]string{"strategy", "source"},
		),
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_router_completion_attempts_total",
				Help: "Completion attempts, by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		attemptLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "model_router_attempt_duration_seconds",
				Help:    "Latency of successful completion attempts",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"provider"},
		),
		cacheEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_router_decision_cache_events_total",
				Help: "Decision cache activity, by event",
			},
			[]string{"event"},
		),
	}
}

// ObserveSelection records one routing decision.
func (c *Collectors) ObserveSelection(strategy string, fromCache bool) {
	if c == nil {
		return
	}
	source := "scored"
	if fromCache {
		source = "cache"
	}
	c.selections.WithLabelValues(strategy, source).Inc()
}

// ObserveAttempt records one completion attempt.
func (c *Collectors) ObserveAttempt(provider string, success bool, elapsed time.Duration) {
	if c == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
		c.attemptLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
	c.attempts.WithLabelValues(provider, outcome).Inc()
}

// ObserveCache records a decision cache event ("hit", "miss", "store").
func (c *Collectors) ObserveCache(event string) {
	if c == nil {
		return
	}
	c.cacheEvents.WithLabelValues(event).Inc()
}
