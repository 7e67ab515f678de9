package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tributary-ai/model-router/internal/metrics"
)

func TestScoreStrategyFormulas(t *testing.T) {
	// performance = 0.95 * (1 - 1000/10000) = 0.855
	// cost        = 1 - 0.002/0.05         = 0.96
	// availability= 1
	snap := metrics.Snapshot{
		AvgLatencyMs: 1000,
		SuccessRate:  0.95,
		CostPerUnit:  0.002,
		ErrorCount:   0,
	}

	tests := []struct {
		name     string
		strategy RoutingStrategy
		expected float64
	}{
		{"balanced", StrategyBalanced, 0.930},
		{"cost optimized", StrategyCostOptimized, 0.943},
		{"performance first", StrategyPerformanceFirst, 0.880},
		{"fastest available", StrategyFastestAvailable, 0.876},
		{"highest quality", StrategyHighestQuality, 0.9195},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(snap, TierStandard, tt.strategy, 0.5, 0.05)
			assert.InDelta(t, tt.expected, score, 1e-6)
		})
	}
}

func TestScoreHighestQualityTierBonus(t *testing.T) {
	snap := metrics.Snapshot{
		AvgLatencyMs: 1000,
		SuccessRate:  0.95,
		CostPerUnit:  0.002,
	}

	base := Score(snap, TierStandard, StrategyHighestQuality, 0.8, 0.05)

	// Premium tier plus a complex task earns the bonus.
	boosted := Score(snap, TierPremium, StrategyHighestQuality, 0.8, 0.05)
	assert.InDelta(t, base+0.3, boosted, 1e-6)

	// Complexity must exceed 0.7, not merely reach it.
	atThreshold := Score(snap, TierPremium, StrategyHighestQuality, 0.7, 0.05)
	assert.InDelta(t, base, atThreshold, 1e-6)
}

func TestScoreUnknownStrategyFallsBackToBalanced(t *testing.T) {
	snap := metrics.Snapshot{
		AvgLatencyMs: 500,
		SuccessRate:  0.9,
		CostPerUnit:  0.01,
	}

	unknown := Score(snap, TierStandard, RoutingStrategy("mystery"), 0.5, 0.05)
	balanced := Score(snap, TierStandard, StrategyBalanced, 0.5, 0.05)
	assert.Equal(t, balanced, unknown)
}

func TestScoreWithoutCostBudget(t *testing.T) {
	snap := metrics.Snapshot{
		SuccessRate: 1.0,
	}

	// No budget makes the cost component a neutral 0.5.
	score := Score(snap, TierStandard, StrategyBalanced, 0.5, 0)
	assert.InDelta(t, 0.4*1.0+0.3*0.5+0.3*1.0, score, 1e-6)
}

func TestScoreCostNeverNegative(t *testing.T) {
	snap := metrics.Snapshot{
		SuccessRate: 1.0,
		CostPerUnit: 1.0, // far above the budget
	}

	score := Score(snap, TierStandard, StrategyCostOptimized, 0.5, 0.05)
	assert.InDelta(t, 0.7*0+0.2*1.0+0.1*1.0, score, 1e-6)
}

func TestScoreAvailabilityClampsAtTenErrors(t *testing.T) {
	snap := metrics.Snapshot{
		SuccessRate: 1.0,
		ErrorCount:  25,
	}

	score := Score(snap, TierStandard, StrategyBalanced, 0.5, 0)
	assert.InDelta(t, 0.4*1.0+0.3*0.5+0.3*0, score, 1e-6)
}
