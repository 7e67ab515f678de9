package routing

// RoleConfig describes a logical agent role: the provider it defaults to and
// the generation parameters applied when the caller supplies none.
type RoleConfig struct {
	PrimaryProvider string  `yaml:"primary_provider"`
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
}

// CandidateBuilder produces the ordered list of providers eligible for a
// role under an execution strategy: the role's primary provider first, then
// the strategy's shortlist, deduplicated in first-seen order.
type CandidateBuilder struct {
	roles      map[string]RoleConfig
	shortlists map[ExecutionStrategy][]string
}

// NewCandidateBuilder wires the builder from the role table and the
// per-strategy shortlists loaded at startup.
func NewCandidateBuilder(roles map[string]RoleConfig, shortlists map[ExecutionStrategy][]string) *CandidateBuilder {
	return &CandidateBuilder{
		roles:      roles,
		shortlists: shortlists,
	}
}

// Role resolves a role's configuration.
func (b *CandidateBuilder) Role(role string) (RoleConfig, bool) {
	cfg, ok := b.roles[role]
	return cfg, ok
}

// Roles returns the number of configured roles.
func (b *CandidateBuilder) Roles() int {
	return len(b.roles)
}

// BuildCandidates returns the eligible providers for the role in priority
// order. Unknown execution strategies use the standard shortlist; empty
// entries are dropped.
func (b *CandidateBuilder) BuildCandidates(role string, strategy ExecutionStrategy) []string {
	var ordered []string

	if cfg, ok := b.roles[role]; ok && cfg.PrimaryProvider != "" {
		ordered = append(ordered, cfg.PrimaryProvider)
	}

	shortlist, ok := b.shortlists[strategy]
	if !ok {
		shortlist = b.shortlists[ExecutionStandard]
	}
	ordered = append(ordered, shortlist...)

	seen := make(map[string]bool, len(ordered))
	candidates := make([]string, 0, len(ordered))
	for _, provider := range ordered {
		if provider == "" || seen[provider] {
			continue
		}
		seen[provider] = true
		candidates = append(candidates, provider)
	}

	return candidates
}
