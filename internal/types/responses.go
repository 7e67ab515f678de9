package types

// CompletionResponse is returned by the completion endpoint on success.
type CompletionResponse struct {
	Content          string      `json:"content"`
	ModelUsed        string      `json:"model_used"`
	CompletionTimeMs int64       `json:"completion_time_ms"`
	Attempt          int         `json:"attempt"`
	RoutingDecision  interface{} `json:"routing_decision"`
	Success          bool        `json:"success"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status           string `json:"status"`
	ModelsRegistered int    `json:"models_registered"`
	CacheSize        int    `json:"cache_size"`
	Timestamp        int64  `json:"timestamp"`
}

// ProviderUsageResponse is returned by the per-provider usage endpoint.
type ProviderUsageResponse struct {
	Provider     string      `json:"provider"`
	Metrics      interface{} `json:"metrics"`
	RequestCount int64       `json:"request_count"`
	Timestamp    int64       `json:"timestamp"`
}
