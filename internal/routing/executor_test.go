package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tributary-ai/model-router/internal/analytics"
	"github.com/tributary-ai/model-router/internal/breaker"
	"github.com/tributary-ai/model-router/internal/gateway"
	"github.com/tributary-ai/model-router/internal/metrics"
	"github.com/tributary-ai/model-router/internal/types"
)

// scriptedGateway fails the first failures calls, then succeeds with content.
type scriptedGateway struct {
	failures int
	content  string
	calls    []string
}

func (g *scriptedGateway) Complete(_ context.Context, provider string, _ []types.Message, _ gateway.Params) (string, error) {
	g.calls = append(g.calls, provider)
	if len(g.calls) <= g.failures {
		return "", errors.New("upstream unavailable")
	}
	return g.content, nil
}

func executorFixture(gw gateway.Gateway, cb breaker.CircuitBreaker) (*Executor, *metrics.Store, *analytics.CostLedger) {
	store := metrics.NewStore(testLogger())
	ledger := analytics.NewCostLedger()
	return NewExecutor(gw, store, ledger, cb, nil, testLogger()), store, ledger
}

func executorDecision() RoutingDecision {
	return RoutingDecision{
		SelectedProvider:  "openai/gpt-4o-mini",
		PrimaryProvider:   "openai/gpt-4o-mini",
		ExecutionStrategy: ExecutionStandard,
		RoutingStrategy:   StrategyBalanced,
		FallbackProviders: []string{"anthropic/claude-3-haiku", "openai/gpt-4o"},
		CreatedAt:         time.Now(),
	}
}

func TestExecuteFirstAttemptSucceeds(t *testing.T) {
	gw := &scriptedGateway{content: "Hi"}
	exec, store, ledger := executorFixture(gw, breaker.NoopBreaker{})
	store.Seed("openai/gpt-4o-mini", 0.001)

	messages := []types.Message{{Role: "user", Content: "Hello"}}
	result, err := exec.Execute(context.Background(), executorDecision(), messages, gateway.Params{}, DefaultRouteConfig())
	require.NoError(t, err)

	assert.Equal(t, "Hi", result.Content)
	assert.Equal(t, "openai/gpt-4o-mini", result.Provider)
	assert.Equal(t, 1, result.Attempt)

	// "Hello" + "Hi" is 7 chars, 2 tokens at 4 chars apiece.
	assert.Equal(t, 2, result.TokensUsed)
	assert.InDelta(t, 0.002, result.Cost, 1e-9)
	assert.InDelta(t, 0.002, ledger.DailyCost()[time.Now().Format("2006-01-02")], 1e-9)
	assert.Equal(t, int64(1), ledger.RequestCount("openai/gpt-4o-mini"))

	snap, ok := store.Get("openai/gpt-4o-mini")
	require.True(t, ok)
	assert.Equal(t, 0, snap.ErrorCount)
	assert.False(t, snap.LastSuccess.IsZero())
}

func TestExecuteFallsBackAfterFailures(t *testing.T) {
	gw := &scriptedGateway{failures: 2, content: "recovered"}
	exec, store, _ := executorFixture(gw, breaker.NoopBreaker{})

	result, err := exec.Execute(context.Background(), executorDecision(), nil, gateway.Params{}, DefaultRouteConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempt)
	assert.Equal(t, "openai/gpt-4o", result.Provider)
	assert.Equal(t, []string{
		"openai/gpt-4o-mini",
		"anthropic/claude-3-haiku",
		"openai/gpt-4o",
	}, gw.calls)

	// Each failed attempt marks its provider.
	for _, provider := range []string{"openai/gpt-4o-mini", "anthropic/claude-3-haiku"} {
		snap, ok := store.Get(provider)
		require.True(t, ok)
		assert.Equal(t, 1, snap.ErrorCount)
	}
}

func TestExecuteExhaustsAllAttempts(t *testing.T) {
	gw := &scriptedGateway{failures: 10}
	exec, store, ledger := executorFixture(gw, breaker.NoopBreaker{})

	_, err := exec.Execute(context.Background(), executorDecision(), nil, gateway.Params{}, DefaultRouteConfig())
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.EqualError(t, exhausted.Last, "upstream unavailable")

	assert.Len(t, gw.calls, 3)
	assert.Equal(t, int64(0), ledger.TotalRequests())

	snap, _ := store.Get("openai/gpt-4o-mini")
	assert.Equal(t, 1, snap.ErrorCount)
}

func TestExecuteNoFallbacksRetriesSelected(t *testing.T) {
	gw := &scriptedGateway{failures: 2, content: "third time"}
	exec, _, _ := executorFixture(gw, breaker.NoopBreaker{})

	decision := executorDecision()
	decision.FallbackProviders = nil

	result, err := exec.Execute(context.Background(), decision, nil, gateway.Params{}, DefaultRouteConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempt)
	assert.Equal(t, []string{
		"openai/gpt-4o-mini",
		"openai/gpt-4o-mini",
		"openai/gpt-4o-mini",
	}, gw.calls)
}

func TestExecuteLastFallbackAbsorbsExtraAttempts(t *testing.T) {
	gw := &scriptedGateway{failures: 10}
	exec, _, _ := executorFixture(gw, breaker.NoopBreaker{})

	decision := executorDecision()
	decision.FallbackProviders = []string{"anthropic/claude-3-haiku"}

	cfg := DefaultRouteConfig()
	cfg.RetryAttempts = 4

	_, err := exec.Execute(context.Background(), decision, nil, gateway.Params{}, cfg)
	require.Error(t, err)

	assert.Equal(t, []string{
		"openai/gpt-4o-mini",
		"anthropic/claude-3-haiku",
		"anthropic/claude-3-haiku",
		"anthropic/claude-3-haiku",
	}, gw.calls)
}

func TestExecuteCircuitOpenSkipsGateway(t *testing.T) {
	gw := &scriptedGateway{content: "never reached"}
	store := metrics.NewStore(testLogger())
	exec := NewExecutor(gw, store, analytics.NewCostLedger(), openCircuit{}, nil, testLogger())

	_, err := exec.Execute(context.Background(), executorDecision(), nil, gateway.Params{}, DefaultRouteConfig())
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.ErrorIs(t, exhausted.Last, ErrRoutingUnavailable)
	assert.Empty(t, gw.calls)

	// Skipped attempts still count against provider health.
	snap, ok := store.Get("openai/gpt-4o-mini")
	require.True(t, ok)
	assert.Equal(t, 1, snap.ErrorCount)
}

func TestExecuteHonorsCancelledContext(t *testing.T) {
	gw := &scriptedGateway{content: "unused"}
	exec, _, _ := executorFixture(gw, breaker.NoopBreaker{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, executorDecision(), nil, gateway.Params{}, DefaultRouteConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gw.calls)
}

func TestProviderForAttempt(t *testing.T) {
	decision := executorDecision()

	assert.Equal(t, "openai/gpt-4o-mini", providerForAttempt(decision, 0))
	assert.Equal(t, "anthropic/claude-3-haiku", providerForAttempt(decision, 1))
	assert.Equal(t, "openai/gpt-4o", providerForAttempt(decision, 2))
	assert.Equal(t, "openai/gpt-4o", providerForAttempt(decision, 7))
}
