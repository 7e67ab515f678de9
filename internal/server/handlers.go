package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tributary-ai/model-router/internal/gateway"
	"github.com/tributary-ai/model-router/internal/routing"
	"github.com/tributary-ai/model-router/internal/types"
)

// handleSelectModel returns a routing decision without executing anything.
func (s *Server) handleSelectModel(w http.ResponseWriter, r *http.Request) {
	var req types.SelectModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	cfg, exec, complexity, err := s.resolveRouteConfig(req)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := s.deps.Router.SelectProvider(r.Context(), req.AgentRole, complexity, exec, cfg)
	if err != nil {
		s.writeSelectionError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, decision)
}

// handleCompletion selects a provider and runs the completion through it,
// falling back across providers until the attempt budget runs out.
func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req types.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	if len(req.Messages) == 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, "messages cannot be empty")
		return
	}

	cfg, exec, complexity, err := s.resolveRouteConfig(req.SelectModelRequest)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := s.deps.Router.SelectProvider(r.Context(), req.AgentRole, complexity, exec, cfg)
	if err != nil {
		s.writeSelectionError(w, err)
		return
	}

	params := s.generationParams(req)

	result, err := s.deps.Executor.Execute(r.Context(), decision, req.Messages, params, cfg)
	if err != nil {
		var exhausted *routing.ExhaustedError
		if errors.As(err, &exhausted) {
			s.writeErrorResponse(w, http.StatusServiceUnavailable, exhausted.Error())
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Completion failed: %v", err))
		return
	}

	s.writeJSONResponse(w, http.StatusOK, types.CompletionResponse{
		Content:          result.Content,
		ModelUsed:        result.Provider,
		CompletionTimeMs: result.ElapsedMs,
		Attempt:          result.Attempt,
		RoutingDecision:  result.Decision,
		Success:          true,
	})
}

// handleAnalytics returns the aggregated cost and health report.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.deps.Reporter.Snapshot())
}

// handleHealthCheck reports liveness plus a few routing gauges.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, types.HealthResponse{
		Status:           "healthy",
		ModelsRegistered: len(s.deps.Store.Providers()),
		CacheSize:        s.deps.Router.Cache().Size(),
		Timestamp:        time.Now().Unix(),
	})
}

// handleCacheClear drops every cached routing decision.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	cleared := s.deps.Router.Cache().Clear()

	s.logger.WithField("cleared", cleared).Info("Routing decision cache cleared")

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"cleared":   cleared,
		"timestamp": time.Now().Unix(),
	})
}

// handleProviderUsage returns one provider's health snapshot and request
// count.
func (s *Server) handleProviderUsage(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]

	snap, ok := s.deps.Store.Get(provider)
	if !ok {
		s.writeErrorResponse(w, http.StatusNotFound, fmt.Sprintf("unknown provider %q", provider))
		return
	}

	s.writeJSONResponse(w, http.StatusOK, types.ProviderUsageResponse{
		Provider:     provider,
		Metrics:      snap,
		RequestCount: s.deps.Reporter.RequestCount(provider),
		Timestamp:    time.Now().Unix(),
	})
}

// resolveRouteConfig merges the request's routing overrides onto the
// configured defaults. Task complexity is clamped to [0, 1].
func (s *Server) resolveRouteConfig(req types.SelectModelRequest) (routing.RouteConfig, routing.ExecutionStrategy, float64, error) {
	cfg := s.defaults

	if req.RoutingStrategy != "" {
		strategy, err := routing.ParseRoutingStrategy(req.RoutingStrategy)
		if err != nil {
			return cfg, "", 0, err
		}
		cfg.Strategy = strategy
	}

	exec, err := routing.ParseExecutionStrategy(req.ExecutionStrategy)
	if err != nil {
		return cfg, "", 0, err
	}

	if req.MaxCostPerRequest != nil {
		cfg.MaxCostPerRequest = *req.MaxCostPerRequest
	}
	if req.FallbackEnabled != nil {
		cfg.FallbackEnabled = *req.FallbackEnabled
	}
	if req.CacheEnabled != nil {
		cfg.CacheEnabled = *req.CacheEnabled
	}

	complexity := req.TaskComplexity
	if complexity < 0 {
		complexity = 0
	}
	if complexity > 1 {
		complexity = 1
	}

	return cfg, exec, complexity, nil
}

// generationParams resolves temperature and token limits: request values
// win, the role's configured defaults fill the gaps.
func (s *Server) generationParams(req types.CompletionRequest) gateway.Params {
	roleCfg, _ := s.deps.Router.Candidates().Role(req.AgentRole)

	params := gateway.Params{
		Temperature: roleCfg.Temperature,
		MaxTokens:   roleCfg.MaxTokens,
	}
	if req.Temperature != nil {
		params.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		params.MaxTokens = *req.MaxTokens
	}
	return params
}

func (s *Server) writeSelectionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, routing.ErrInvalidStrategy), errors.Is(err, routing.ErrUnknownRole):
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, routing.ErrRoutingUnavailable):
		s.writeErrorResponse(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.writeErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Routing failed: %v", err))
	}
}
