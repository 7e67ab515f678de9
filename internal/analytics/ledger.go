package analytics

import (
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// CostLedger accumulates completion cost per calendar date and request count
// per provider. Entries are created lazily on the first event and only ever
// grow; nothing is deleted for the lifetime of the process.
type CostLedger struct {
	mu        sync.Mutex
	dailyCost map[string]float64
	requests  map[string]int64
}

// NewCostLedger creates an empty ledger.
func NewCostLedger() *CostLedger {
	return &CostLedger{
		dailyCost: make(map[string]float64),
		requests:  make(map[string]int64),
	}
}

// Record adds one completed request's cost under today's date and bumps the
// provider's request counter.
func (l *CostLedger) Record(provider string, cost float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dailyCost[time.Now().Format(dateLayout)] += cost
	l.requests[provider]++
}

// DailyCost returns a copy of the date -> accumulated cost map.
func (l *CostLedger) DailyCost() map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]float64, len(l.dailyCost))
	for date, cost := range l.dailyCost {
		out[date] = cost
	}
	return out
}

// RequestCounts returns a copy of the provider -> request count map.
func (l *CostLedger) RequestCounts() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int64, len(l.requests))
	for provider, count := range l.requests {
		out[provider] = count
	}
	return out
}

// TotalRequests returns the request count summed across providers.
func (l *CostLedger) TotalRequests() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, count := range l.requests {
		total += count
	}
	return total
}

// RequestCount returns the request count for a single provider.
func (l *CostLedger) RequestCount(provider string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requests[provider]
}
