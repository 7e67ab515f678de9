package analytics

import (
	"time"

	"github.com/tributary-ai/model-router/internal/metrics"
)

// CacheSizer exposes the decision cache's current entry count.
type CacheSizer interface {
	Size() int
}

// ProviderStats combines a provider's health snapshot with its cumulative
// request count from the ledger.
type ProviderStats struct {
	Metrics      metrics.Snapshot `json:"metrics"`
	RequestCount int64            `json:"request_count"`
}

// Report is the aggregated routing analytics payload.
type Report struct {
	DailyCost     map[string]float64       `json:"daily_cost"`
	TotalRequests int64                    `json:"total_requests"`
	CacheHitRate  float64                  `json:"cache_hit_rate"`
	ProviderStats map[string]ProviderStats `json:"provider_stats"`
	CacheSize     int                      `json:"cache_size"`
	Timestamp     int64                    `json:"timestamp"`
}

// Reporter assembles analytics reports from the ledger, metrics store, and
// decision cache. It is strictly read-only over all three.
type Reporter struct {
	ledger *CostLedger
	store  *metrics.Store
	cache  CacheSizer
}

// NewReporter wires a reporter over the shared routing state.
func NewReporter(ledger *CostLedger, store *metrics.Store, cache CacheSizer) *Reporter {
	return &Reporter{
		ledger: ledger,
		store:  store,
		cache:  cache,
	}
}

// RequestCount returns one provider's cumulative request count.
func (r *Reporter) RequestCount(provider string) int64 {
	return r.ledger.RequestCount(provider)
}

// Snapshot builds the current analytics report.
func (r *Reporter) Snapshot() Report {
	total := r.ledger.TotalRequests()
	cacheSize := r.cache.Size()

	// Not a true hit/miss ratio: the source system computed cache_size over
	// total_requests and downstream dashboards depend on that shape, so the
	// formula is preserved as-is.
	denominator := total
	if denominator < 1 {
		denominator = 1
	}
	hitRate := float64(cacheSize) / float64(denominator)

	stats := make(map[string]ProviderStats)
	for _, provider := range r.store.Providers() {
		snap, ok := r.store.Get(provider)
		if !ok {
			continue
		}
		stats[provider] = ProviderStats{
			Metrics:      snap,
			RequestCount: r.ledger.RequestCount(provider),
		}
	}

	return Report{
		DailyCost:     r.ledger.DailyCost(),
		TotalRequests: total,
		CacheHitRate:  hitRate,
		ProviderStats: stats,
		CacheSize:     cacheSize,
		Timestamp:     time.Now().Unix(),
	}
}
