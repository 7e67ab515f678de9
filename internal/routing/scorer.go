package routing

import (
	"github.com/tributary-ai/model-router/internal/metrics"
)

// scoreInputs bundles everything a strategy formula can look at.
type scoreInputs struct {
	performance    float64
	cost           float64
	availability   float64
	avgLatencyMs   float64
	tier           Tier
	taskComplexity float64
}

type scoreFunc func(in scoreInputs) float64

// strategyScorers dispatches each routing strategy to its weighting formula.
// A table (rather than a switch) keeps the strategy set and the formulas in
// one place; adding a strategy without a formula is immediately visible.
var strategyScorers = map[RoutingStrategy]scoreFunc{
	StrategyCostOptimized: func(in scoreInputs) float64 {
		return 0.7*in.cost + 0.2*in.performance + 0.1*in.availability
	},
	StrategyPerformanceFirst: func(in scoreInputs) float64 {
		return 0.8*in.performance + 0.1*in.cost + 0.1*in.availability
	},
	StrategyFastestAvailable: func(in scoreInputs) float64 {
		latency := 1 - in.avgLatencyMs/5000
		return 0.6*latency + 0.3*in.availability + 0.1*in.cost
	},
	StrategyHighestQuality: func(in scoreInputs) float64 {
		tierBonus := 0.0
		if in.tier == TierPremium && in.taskComplexity > 0.7 {
			tierBonus = 0.3
		}
		return 0.5*in.performance + 0.3*in.availability + 0.2*in.cost + tierBonus
	},
	StrategyBalanced: func(in scoreInputs) float64 {
		return 0.4*in.performance + 0.3*in.cost + 0.3*in.availability
	},
}

// Score rates a provider for the given strategy from its current metrics.
// Unknown strategies fall back to the balanced formula.
func Score(snap metrics.Snapshot, tier Tier, strategy RoutingStrategy, taskComplexity, maxCost float64) float64 {
	in := scoreInputs{
		performance:    snap.SuccessRate * (1 - snap.AvgLatencyMs/10000),
		cost:           costScore(snap.CostPerUnit, maxCost),
		availability:   1 - min(1, float64(snap.ErrorCount)/10),
		avgLatencyMs:   snap.AvgLatencyMs,
		tier:           tier,
		taskComplexity: taskComplexity,
	}

	formula, ok := strategyScorers[strategy]
	if !ok {
		formula = strategyScorers[StrategyBalanced]
	}
	return formula(in)
}

func costScore(costPerUnit, maxCost float64) float64 {
	if maxCost <= 0 {
		return 0.5
	}
	return max(0, 1-costPerUnit/maxCost)
}
