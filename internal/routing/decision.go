package routing

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// RoutingDecision is the immutable outcome of one provider selection.
type RoutingDecision struct {
	// The provider that won the scoring pass
	SelectedProvider string `json:"selected_provider"`

	// The role's configured default, before scoring
	PrimaryProvider string `json:"primary_provider"`

	ExecutionStrategy ExecutionStrategy `json:"execution_strategy"`
	RoutingStrategy   RoutingStrategy   `json:"routing_strategy"`

	TaskComplexity float64 `json:"task_complexity"`
	ProviderTier   Tier    `json:"provider_tier"`

	// Alternates tried after the selected provider fails, best-first,
	// capped at three and never containing the selected provider
	FallbackProviders []string `json:"fallback_providers"`

	SelectionScore float64   `json:"selection_score"`
	CreatedAt      time.Time `json:"created_at"`

	// Set only on decisions served from the cache; not part of the
	// decision's identity
	CacheUsed bool `json:"cache_used,omitempty"`
}

// CacheKey derives the deterministic cache key for a selection. Complexity
// is rounded to two decimals so near-identical requests share an entry.
func CacheKey(role string, taskComplexity float64, exec ExecutionStrategy, strategy RoutingStrategy) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%.2f|%s|%s", role, taskComplexity, exec, strategy)))
	return hex.EncodeToString(sum[:])
}
