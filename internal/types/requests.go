package types

// Message is a single turn in a conversation sent to a backend model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SelectModelRequest asks the router for a routing decision without
// executing a completion.
type SelectModelRequest struct {
	AgentRole         string   `json:"agent_role"`
	TaskComplexity    float64  `json:"task_complexity"`
	ExecutionStrategy string   `json:"execution_strategy,omitempty"`
	RoutingStrategy   string   `json:"routing_strategy,omitempty"`
	MaxCostPerRequest *float64 `json:"max_cost_per_request,omitempty"`
	FallbackEnabled   *bool    `json:"fallback_enabled,omitempty"`
	CacheEnabled      *bool    `json:"cache_enabled,omitempty"`
}

// CompletionRequest asks the router to select a provider and execute the
// completion through it, with retry and fallback.
type CompletionRequest struct {
	SelectModelRequest

	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}
