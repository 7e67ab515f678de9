package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/model-router/internal/breaker"
	"github.com/tributary-ai/model-router/internal/metrics"
	"github.com/tributary-ai/model-router/internal/observability"
)

// opSelect is the circuit breaker operation guarding provider selection.
const opSelect = "routing.select"

// maxFallbacks caps how many alternates a decision carries.
const maxFallbacks = 3

// Router scores candidate providers against live metrics and picks the best
// one for a role. A Router owns no provider connections; it only decides.
type Router struct {
	store      *metrics.Store
	tiers      *TierClassifier
	candidates *CandidateBuilder
	cache      *DecisionCache
	breaker    breaker.CircuitBreaker
	collectors *observability.Collectors
	logger     *logrus.Logger
}

// NewRouter wires a Router from its collaborators. collectors may be nil.
func NewRouter(
	store *metrics.Store,
	tiers *TierClassifier,
	candidates *CandidateBuilder,
	cache *DecisionCache,
	cb breaker.CircuitBreaker,
	collectors *observability.Collectors,
	logger *logrus.Logger,
) *Router {
	return &Router{
		store:      store,
		tiers:      tiers,
		candidates: candidates,
		cache:      cache,
		breaker:    cb,
		collectors: collectors,
		logger:     logger,
	}
}

// Candidates exposes the role/candidate configuration for callers that need
// per-role generation defaults.
func (r *Router) Candidates() *CandidateBuilder {
	return r.candidates
}

// Cache exposes the decision cache for the analytics and cache endpoints.
func (r *Router) Cache() *DecisionCache {
	return r.cache
}

// SelectProvider picks the provider for one task. The decision is cached per
// (role, complexity, strategies) tuple when cfg.CacheEnabled is set; cached
// decisions come back with CacheUsed set so callers can tell them apart.
func (r *Router) SelectProvider(ctx context.Context, role string, taskComplexity float64, exec ExecutionStrategy, cfg RouteConfig) (RoutingDecision, error) {
	if err := ctx.Err(); err != nil {
		return RoutingDecision{}, err
	}

	if !r.breaker.Allow(opSelect) {
		return RoutingDecision{}, ErrRoutingUnavailable
	}

	key := CacheKey(role, taskComplexity, exec, cfg.Strategy)
	if cfg.CacheEnabled {
		if cached, ok := r.cache.Get(key); ok {
			cached.CacheUsed = true
			r.collectors.ObserveSelection(string(cfg.Strategy), true)
			r.collectors.ObserveCache("hit")
			r.logger.WithFields(logrus.Fields{
				"role":     role,
				"provider": cached.SelectedProvider,
			}).Debug("Routing decision served from cache")
			return cached, nil
		}
		r.collectors.ObserveCache("miss")
	}

	roleCfg, ok := r.candidates.Role(role)
	if !ok || roleCfg.PrimaryProvider == "" {
		// Validation error, not an infrastructure failure; the breaker
		// only tracks the latter.
		return RoutingDecision{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	decision := r.score(role, roleCfg, taskComplexity, exec, cfg)

	if cfg.CacheEnabled {
		r.cache.Put(key, decision)
		r.collectors.ObserveCache("store")
	}

	r.breaker.RecordResult(opSelect, true)
	r.collectors.ObserveSelection(string(cfg.Strategy), false)

	r.logger.WithFields(logrus.Fields{
		"role":      role,
		"strategy":  cfg.Strategy,
		"provider":  decision.SelectedProvider,
		"score":     decision.SelectionScore,
		"fallbacks": len(decision.FallbackProviders),
	}).Info("Provider selected")

	return decision, nil
}

// score runs the strategy formula over the candidate list and assembles the
// decision. Providers missing from the metrics store score zero rather than
// being skipped.
func (r *Router) score(role string, roleCfg RoleConfig, taskComplexity float64, exec ExecutionStrategy, cfg RouteConfig) RoutingDecision {
	candidates := r.candidates.BuildCandidates(role, exec)

	selected := roleCfg.PrimaryProvider
	best := 0.0

	scored := make([]string, 0, len(candidates))
	for i, provider := range candidates {
		score := 0.0
		if snap, ok := r.store.Get(provider); ok {
			score = Score(snap, r.tiers.ClassifyTier(provider), cfg.Strategy, taskComplexity, cfg.MaxCostPerRequest)
		}
		scored = append(scored, provider)

		// Strictly greater keeps the earlier candidate on ties.
		if i == 0 || score > best {
			selected = provider
			best = score
		}
	}

	var fallbacks []string
	if cfg.FallbackEnabled {
		for _, provider := range scored {
			if provider == selected {
				continue
			}
			fallbacks = append(fallbacks, provider)
			if len(fallbacks) == maxFallbacks {
				break
			}
		}
	}

	return RoutingDecision{
		SelectedProvider:  selected,
		PrimaryProvider:   roleCfg.PrimaryProvider,
		ExecutionStrategy: exec,
		RoutingStrategy:   cfg.Strategy,
		TaskComplexity:    taskComplexity,
		ProviderTier:      r.tiers.ClassifyTier(selected),
		FallbackProviders: fallbacks,
		SelectionScore:    best,
		CreatedAt:         time.Now(),
	}
}
