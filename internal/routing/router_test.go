package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tributary-ai/model-router/internal/breaker"
	"github.com/tributary-ai/model-router/internal/metrics"
)

type openCircuit struct{}

func (openCircuit) Allow(string) bool         { return false }
func (openCircuit) RecordResult(string, bool) {}

func newTestRouter(t *testing.T, store *metrics.Store) *Router {
	t.Helper()
	return NewRouter(
		store,
		NewTierClassifier(nil),
		testBuilder(),
		NewDecisionCache("", testLogger()),
		breaker.NoopBreaker{},
		nil,
		testLogger(),
	)
}

func TestSelectProviderUnknownRole(t *testing.T) {
	router := newTestRouter(t, metrics.NewStore(testLogger()))

	_, err := router.SelectProvider(context.Background(), "stranger", 0.5, ExecutionStandard, DefaultRouteConfig())
	assert.ErrorIs(t, err, ErrUnknownRole)

	// A role without a primary provider is as good as unknown.
	_, err = router.SelectProvider(context.Background(), "orphan", 0.5, ExecutionStandard, DefaultRouteConfig())
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestSelectProviderPicksBestScore(t *testing.T) {
	store := metrics.NewStore(testLogger())
	store.Seed("openai/gpt-4o-mini", 0.002)
	store.Seed("anthropic/claude-3-haiku", 0.0005)
	store.Seed("openai/gpt-4o", 0.01)

	router := newTestRouter(t, store)

	cfg := DefaultRouteConfig()
	cfg.Strategy = StrategyCostOptimized

	decision, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, cfg)
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-3-haiku", decision.SelectedProvider)
	assert.Equal(t, "openai/gpt-4o-mini", decision.PrimaryProvider)
	assert.Equal(t, TierEconomy, decision.ProviderTier)
	assert.Greater(t, decision.SelectionScore, 0.9)

	// Fallbacks keep candidate order and never include the winner.
	assert.Equal(t, []string{"openai/gpt-4o-mini", "openai/gpt-4o"}, decision.FallbackProviders)
}

func TestSelectProviderTieBreaksOnFirstSeen(t *testing.T) {
	store := metrics.NewStore(testLogger())
	store.Seed("openai/gpt-4o-mini", 0.002)
	store.Seed("anthropic/claude-3-haiku", 0.002)
	store.Seed("openai/gpt-4o", 0.002)

	router := newTestRouter(t, store)

	decision, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, DefaultRouteConfig())
	require.NoError(t, err)

	// Identical metrics, identical scores; the primary comes first and wins.
	assert.Equal(t, "openai/gpt-4o-mini", decision.SelectedProvider)
}

func TestSelectProviderUnseededCandidatesScoreZero(t *testing.T) {
	router := newTestRouter(t, metrics.NewStore(testLogger()))

	decision, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, DefaultRouteConfig())
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o-mini", decision.SelectedProvider)
	assert.Equal(t, 0.0, decision.SelectionScore)
}

func TestSelectProviderCacheHit(t *testing.T) {
	store := metrics.NewStore(testLogger())
	store.Seed("openai/gpt-4o-mini", 0.002)

	router := newTestRouter(t, store)
	cfg := DefaultRouteConfig()

	first, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, cfg)
	require.NoError(t, err)
	assert.False(t, first.CacheUsed)

	second, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, cfg)
	require.NoError(t, err)
	assert.True(t, second.CacheUsed)
	assert.Equal(t, first.SelectedProvider, second.SelectedProvider)
	assert.Equal(t, first.SelectionScore, second.SelectionScore)
}

func TestSelectProviderCacheDisabled(t *testing.T) {
	store := metrics.NewStore(testLogger())
	store.Seed("openai/gpt-4o-mini", 0.002)

	router := newTestRouter(t, store)
	cfg := DefaultRouteConfig()
	cfg.CacheEnabled = false

	_, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, cfg)
	require.NoError(t, err)

	second, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, cfg)
	require.NoError(t, err)
	assert.False(t, second.CacheUsed)
	assert.Equal(t, 0, router.Cache().Size())
}

func TestSelectProviderFallbacksCappedAtThree(t *testing.T) {
	builder := NewCandidateBuilder(
		map[string]RoleConfig{
			"researcher": {PrimaryProvider: "openai/gpt-4o-mini"},
		},
		map[ExecutionStrategy][]string{
			ExecutionStandard: {
				"anthropic/claude-3-haiku",
				"openai/gpt-4o",
				"anthropic/claude-3-5-sonnet",
				"anthropic/claude-3-opus",
				"openai/gpt-3.5-turbo",
			},
		},
	)

	router := NewRouter(
		metrics.NewStore(testLogger()),
		NewTierClassifier(nil),
		builder,
		NewDecisionCache("", testLogger()),
		breaker.NoopBreaker{},
		nil,
		testLogger(),
	)

	decision, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, DefaultRouteConfig())
	require.NoError(t, err)

	assert.Len(t, decision.FallbackProviders, 3)
	assert.NotContains(t, decision.FallbackProviders, decision.SelectedProvider)
}

func TestSelectProviderFallbackDisabled(t *testing.T) {
	store := metrics.NewStore(testLogger())
	store.Seed("openai/gpt-4o-mini", 0.002)

	router := newTestRouter(t, store)
	cfg := DefaultRouteConfig()
	cfg.FallbackEnabled = false

	decision, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, cfg)
	require.NoError(t, err)
	assert.Empty(t, decision.FallbackProviders)
}

func TestSelectProviderCircuitOpen(t *testing.T) {
	router := NewRouter(
		metrics.NewStore(testLogger()),
		NewTierClassifier(nil),
		testBuilder(),
		NewDecisionCache("", testLogger()),
		openCircuit{},
		nil,
		testLogger(),
	)

	_, err := router.SelectProvider(context.Background(), "researcher", 0.5, ExecutionStandard, DefaultRouteConfig())
	assert.ErrorIs(t, err, ErrRoutingUnavailable)
}
