package routing

// Tier is a coarse capability/cost classification of a provider.
type Tier string

const (
	TierPremium  Tier = "premium"
	TierStandard Tier = "standard"
	TierEconomy  Tier = "economy"
	TierFree     Tier = "free"
)

// TierClassifier maps provider ids to tiers via a static lookup table.
// Providers absent from the table classify as standard.
type TierClassifier struct {
	table map[string]Tier
}

// defaultTierTable covers the providers the router ships with; config can
// extend or override it.
func defaultTierTable() map[string]Tier {
	return map[string]Tier{
		"openai/gpt-4o":               TierPremium,
		"anthropic/claude-3-5-sonnet": TierPremium,
		"anthropic/claude-3-opus":     TierPremium,
		"openai/gpt-4o-mini":          TierStandard,
		"anthropic/claude-3-haiku":    TierEconomy,
		"openai/gpt-3.5-turbo":        TierEconomy,
	}
}

// NewTierClassifier builds a classifier from the default table plus any
// config overrides.
func NewTierClassifier(overrides map[string]Tier) *TierClassifier {
	table := defaultTierTable()
	for provider, tier := range overrides {
		table[provider] = tier
	}
	return &TierClassifier{table: table}
}

// ClassifyTier returns the provider's tier, defaulting to standard.
func (c *TierClassifier) ClassifyTier(provider string) Tier {
	if tier, ok := c.table[provider]; ok {
		return tier
	}
	return TierStandard
}
