package routing

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/model-router/internal/analytics"
	"github.com/tributary-ai/model-router/internal/breaker"
	"github.com/tributary-ai/model-router/internal/gateway"
	"github.com/tributary-ai/model-router/internal/metrics"
	"github.com/tributary-ai/model-router/internal/observability"
	"github.com/tributary-ai/model-router/internal/types"
)

// opComplete is the circuit breaker operation guarding upstream completions.
const opComplete = "gateway.complete"

// charsPerToken is the rough character-to-token ratio used for cost
// accounting when the upstream response carries no usage data.
const charsPerToken = 4

// CompletionResult is the outcome of a successful completion, including
// which attempt produced it.
type CompletionResult struct {
	Content    string
	Provider   string
	Attempt    int // 1-based
	ElapsedMs  int64
	Decision   RoutingDecision
	TokensUsed int
	Cost       float64
}

// Executor drives the retry/fallback loop around a routing decision: it
// walks the selected provider and its fallbacks, records every attempt in
// the metrics store, and books the cost of the winning attempt.
type Executor struct {
	gateway    gateway.Gateway
	store      *metrics.Store
	ledger     *analytics.CostLedger
	breaker    breaker.CircuitBreaker
	collectors *observability.Collectors
	logger     *logrus.Logger
}

// NewExecutor wires an Executor. collectors may be nil.
func NewExecutor(
	gw gateway.Gateway,
	store *metrics.Store,
	ledger *analytics.CostLedger,
	cb breaker.CircuitBreaker,
	collectors *observability.Collectors,
	logger *logrus.Logger,
) *Executor {
	return &Executor{
		gateway:    gw,
		store:      store,
		ledger:     ledger,
		breaker:    cb,
		collectors: collectors,
		logger:     logger,
	}
}

// Execute runs up to cfg.RetryAttempts completion attempts for the decision,
// each under its own cfg.MaxLatency deadline. The first success wins; if
// every attempt fails the error is an *ExhaustedError wrapping the last one.
func (e *Executor) Execute(ctx context.Context, decision RoutingDecision, messages []types.Message, params gateway.Params, cfg RouteConfig) (CompletionResult, error) {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return CompletionResult{}, err
		}

		provider := providerForAttempt(decision, i)

		if !e.breaker.Allow(opComplete) {
			// An open circuit counts as a failed attempt so the
			// provider's health reflects the outage.
			e.store.Update(provider, 0, false)
			e.collectors.ObserveAttempt(provider, false, 0)
			lastErr = ErrRoutingUnavailable
			e.logger.WithFields(logrus.Fields{
				"provider": provider,
				"attempt":  i + 1,
			}).Warn("Completion circuit open, skipping attempt")
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.MaxLatency)
		start := time.Now()
		content, err := e.gateway.Complete(attemptCtx, provider, messages, params)
		elapsed := time.Since(start)
		cancel()

		if err != nil {
			e.store.Update(provider, 0, false)
			e.breaker.RecordResult(opComplete, false)
			e.collectors.ObserveAttempt(provider, false, elapsed)
			lastErr = err
			e.logger.WithError(err).WithFields(logrus.Fields{
				"provider": provider,
				"attempt":  i + 1,
			}).Warn("Completion attempt failed")
			continue
		}

		elapsedMs := elapsed.Milliseconds()
		e.store.Update(provider, float64(elapsedMs), true)
		e.breaker.RecordResult(opComplete, true)
		e.collectors.ObserveAttempt(provider, true, elapsed)

		tokens := estimateTokens(messages, content)
		cost := e.bookCost(provider, tokens)

		e.logger.WithFields(logrus.Fields{
			"provider":   provider,
			"attempt":    i + 1,
			"elapsed_ms": elapsedMs,
			"tokens":     tokens,
		}).Info("Completion succeeded")

		return CompletionResult{
			Content:    content,
			Provider:   provider,
			Attempt:    i + 1,
			ElapsedMs:  elapsedMs,
			Decision:   decision,
			TokensUsed: tokens,
			Cost:       cost,
		}, nil
	}

	return CompletionResult{}, &ExhaustedError{Attempts: attempts, Last: lastErr}
}

// providerForAttempt maps an attempt index to a provider: the selected
// provider first, then the fallbacks in order, with the last fallback
// absorbing any remaining attempts. No fallbacks means every attempt retries
// the selected provider.
func providerForAttempt(decision RoutingDecision, attempt int) string {
	if attempt == 0 || len(decision.FallbackProviders) == 0 {
		return decision.SelectedProvider
	}
	idx := attempt - 1
	if idx >= len(decision.FallbackProviders) {
		idx = len(decision.FallbackProviders) - 1
	}
	return decision.FallbackProviders[idx]
}

// estimateTokens approximates the token count of the exchange from its
// character length.
func estimateTokens(messages []types.Message, completion string) int {
	chars := len(completion)
	for _, msg := range messages {
		chars += len(msg.Content)
	}
	return int(math.Ceil(float64(chars) / charsPerToken))
}

// bookCost books the attempt in the cost ledger. Providers without a seeded
// cost rate book a zero-cost request so the request count still moves.
func (e *Executor) bookCost(provider string, tokens int) float64 {
	var cost float64
	if snap, ok := e.store.Get(provider); ok {
		cost = float64(tokens) * snap.CostPerUnit
	}
	e.ledger.Record(provider, cost)
	return cost
}
