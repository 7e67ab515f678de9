package routing

import (
	"fmt"
	"time"
)

// RoutingStrategy selects the scoring formula family used during provider
// selection.
type RoutingStrategy string

const (
	StrategyCostOptimized    RoutingStrategy = "cost_optimized"
	StrategyPerformanceFirst RoutingStrategy = "performance_first"
	StrategyFastestAvailable RoutingStrategy = "fastest_available"
	StrategyHighestQuality   RoutingStrategy = "highest_quality"
	StrategyBalanced         RoutingStrategy = "balanced"
)

// ParseRoutingStrategy validates a caller-supplied strategy string. The
// empty string maps to the balanced default.
func ParseRoutingStrategy(s string) (RoutingStrategy, error) {
	switch RoutingStrategy(s) {
	case "":
		return StrategyBalanced, nil
	case StrategyCostOptimized, StrategyPerformanceFirst, StrategyFastestAvailable,
		StrategyHighestQuality, StrategyBalanced:
		return RoutingStrategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// ExecutionStrategy is the caller's intent for how the task should run; it
// shapes the candidate shortlist rather than the scoring formula.
type ExecutionStrategy string

const (
	ExecutionLite     ExecutionStrategy = "lite"
	ExecutionQuality  ExecutionStrategy = "quality"
	ExecutionDebate   ExecutionStrategy = "debate"
	ExecutionStandard ExecutionStrategy = "standard"
)

// ParseExecutionStrategy validates a caller-supplied execution strategy.
// The empty string maps to standard.
func ParseExecutionStrategy(s string) (ExecutionStrategy, error) {
	switch ExecutionStrategy(s) {
	case "":
		return ExecutionStandard, nil
	case ExecutionLite, ExecutionQuality, ExecutionDebate, ExecutionStandard:
		return ExecutionStrategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// RouteConfig carries the per-call routing knobs. Values are immutable for
// the duration of one selection/completion.
type RouteConfig struct {
	Strategy          RoutingStrategy
	MaxCostPerRequest float64
	MaxLatency        time.Duration
	FallbackEnabled   bool
	CacheEnabled      bool
	RetryAttempts     int
}

// DefaultRouteConfig returns the routing defaults: balanced scoring, a 5
// cent cost ceiling, 10s per-attempt budget, 3 attempts, caching and
// fallback on.
func DefaultRouteConfig() RouteConfig {
	return RouteConfig{
		Strategy:          StrategyBalanced,
		MaxCostPerRequest: 0.05,
		MaxLatency:        10 * time.Second,
		FallbackEnabled:   true,
		CacheEnabled:      true,
		RetryAttempts:     3,
	}
}
