package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tributary-ai/model-router/internal/breaker"
	"github.com/tributary-ai/model-router/internal/gateway"
	"github.com/tributary-ai/model-router/internal/routing"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Routing   RoutingConfig   `yaml:"routing"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Breaker   breaker.Config  `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// RoutingConfig holds the routing engine configuration: global defaults plus
// the role, shortlist, tier, and cost tables the router selects from.
type RoutingConfig struct {
	DefaultStrategy   string        `yaml:"default_strategy"`
	MaxCostPerRequest float64       `yaml:"max_cost_per_request"`
	MaxLatency        time.Duration `yaml:"max_latency"`
	RetryAttempts     int           `yaml:"retry_attempts"`
	FallbackEnabled   bool          `yaml:"fallback_enabled"`
	CacheEnabled      bool          `yaml:"cache_enabled"`
	CachePath         string        `yaml:"cache_path"`

	Roles         map[string]routing.RoleConfig `yaml:"roles"`
	Shortlists    map[string][]string           `yaml:"shortlists"`
	TierOverrides map[string]string             `yaml:"tier_overrides"`
	ProviderCosts map[string]float64            `yaml:"provider_costs"`
}

// ProvidersConfig holds configuration for the upstream vendors
type ProvidersConfig struct {
	OpenAI    gateway.OpenAIConfig    `yaml:"openai"`
	Anthropic gateway.AnthropicConfig `yaml:"anthropic"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
	Output string `yaml:"output"` // "stdout", "stderr", or file path
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	APIKeys      []string        `yaml:"api_keys"`
	JWTSecret    string          `yaml:"jwt_secret"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting"`
	CORS         CORSConfig      `yaml:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_minute"`
	BurstSize      int  `yaml:"burst_size"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	config.setDefaults()

	if configPath != "" {
		if err := config.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	config.loadFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() {
	c.Server = ServerConfig{
		Port:           "8080",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	c.Routing = RoutingConfig{
		DefaultStrategy:   string(routing.StrategyBalanced),
		MaxCostPerRequest: 0.05,
		MaxLatency:        10 * time.Second,
		RetryAttempts:     3,
		FallbackEnabled:   true,
		CacheEnabled:      true,
		CachePath:         "data/routing_cache.json",
		Roles: map[string]routing.RoleConfig{
			"researcher": {PrimaryProvider: "openai/gpt-4o-mini", Temperature: 0.7, MaxTokens: 1024},
			"analyst":    {PrimaryProvider: "anthropic/claude-3-5-sonnet", Temperature: 0.3, MaxTokens: 2048},
			"writer":     {PrimaryProvider: "openai/gpt-4o", Temperature: 0.9, MaxTokens: 4096},
			"critic":     {PrimaryProvider: "anthropic/claude-3-haiku", Temperature: 0.2, MaxTokens: 1024},
		},
		Shortlists: map[string][]string{
			"lite":     {"anthropic/claude-3-haiku", "openai/gpt-4o-mini", "openai/gpt-3.5-turbo"},
			"quality":  {"openai/gpt-4o", "anthropic/claude-3-5-sonnet", "anthropic/claude-3-opus"},
			"debate":   {"openai/gpt-4o", "anthropic/claude-3-5-sonnet", "openai/gpt-4o-mini", "anthropic/claude-3-haiku"},
			"standard": {"openai/gpt-4o-mini", "anthropic/claude-3-5-sonnet", "anthropic/claude-3-haiku"},
		},
		// Per-token rates derived from list prices, blended input/output.
		ProviderCosts: map[string]float64{
			"openai/gpt-4o":               0.00001,
			"openai/gpt-4o-mini":          0.0000004,
			"openai/gpt-3.5-turbo":        0.0000018,
			"anthropic/claude-3-5-sonnet": 0.000009,
			"anthropic/claude-3-opus":     0.000045,
			"anthropic/claude-3-haiku":    0.0000008,
		},
	}

	c.Logging = LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	c.Security = SecurityConfig{
		APIKeys: []string{},
		RateLimiting: RateLimitConfig{
			Enabled:        false,
			RequestsPerMin: 60,
			BurstSize:      10,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
		},
	}

	c.Breaker = breaker.DefaultConfig()
}

// loadFromFile loads configuration from YAML file
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("MODEL_ROUTER_PORT"); port != "" {
		c.Server.Port = port
	}

	if openaiKey := os.Getenv("OPENAI_API_KEY"); openaiKey != "" {
		c.Providers.OpenAI.APIKey = openaiKey
	}

	if anthropicKey := os.Getenv("ANTHROPIC_API_KEY"); anthropicKey != "" {
		c.Providers.Anthropic.APIKey = anthropicKey
	}

	if level := os.Getenv("MODEL_ROUTER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if format := os.Getenv("MODEL_ROUTER_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}

	if strategy := os.Getenv("MODEL_ROUTER_DEFAULT_STRATEGY"); strategy != "" {
		c.Routing.DefaultStrategy = strategy
	}

	if secret := os.Getenv("MODEL_ROUTER_JWT_SECRET"); secret != "" {
		c.Security.JWTSecret = secret
	}

	if path := os.Getenv("MODEL_ROUTER_CACHE_PATH"); path != "" {
		c.Routing.CachePath = path
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if _, err := routing.ParseRoutingStrategy(c.Routing.DefaultStrategy); err != nil {
		return fmt.Errorf("invalid default strategy: %w", err)
	}

	if c.Routing.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1, got %d", c.Routing.RetryAttempts)
	}

	if c.Routing.MaxLatency <= 0 {
		return fmt.Errorf("max_latency must be positive")
	}

	for key := range c.Routing.Shortlists {
		if _, err := routing.ParseExecutionStrategy(key); err != nil {
			return fmt.Errorf("invalid shortlist key %q: %w", key, err)
		}
	}

	for provider, tier := range c.Routing.TierOverrides {
		switch routing.Tier(tier) {
		case routing.TierPremium, routing.TierStandard, routing.TierEconomy, routing.TierFree:
		default:
			return fmt.Errorf("invalid tier %q for provider %q", tier, provider)
		}
	}

	for role, rc := range c.Routing.Roles {
		if rc.PrimaryProvider == "" {
			return fmt.Errorf("role %q has no primary provider", role)
		}
	}

	return nil
}

// RouteConfig converts the configured routing defaults into the per-request
// knob set handed to the router.
func (c *Config) RouteConfig() routing.RouteConfig {
	strategy, err := routing.ParseRoutingStrategy(c.Routing.DefaultStrategy)
	if err != nil {
		strategy = routing.StrategyBalanced
	}

	return routing.RouteConfig{
		Strategy:          strategy,
		MaxCostPerRequest: c.Routing.MaxCostPerRequest,
		MaxLatency:        c.Routing.MaxLatency,
		FallbackEnabled:   c.Routing.FallbackEnabled,
		CacheEnabled:      c.Routing.CacheEnabled,
		RetryAttempts:     c.Routing.RetryAttempts,
	}
}

// ExecutionShortlists converts the string-keyed shortlist table into the
// typed form the candidate builder expects. Keys were validated at load
// time; anything unparseable here is skipped.
func (c *Config) ExecutionShortlists() map[routing.ExecutionStrategy][]string {
	out := make(map[routing.ExecutionStrategy][]string, len(c.Routing.Shortlists))
	for key, providers := range c.Routing.Shortlists {
		strategy, err := routing.ParseExecutionStrategy(key)
		if err != nil {
			continue
		}
		out[strategy] = providers
	}
	return out
}

// TierTable converts the tier override strings into typed tiers.
func (c *Config) TierTable() map[string]routing.Tier {
	out := make(map[string]routing.Tier, len(c.Routing.TierOverrides))
	for provider, tier := range c.Routing.TierOverrides {
		out[provider] = routing.Tier(tier)
	}
	return out
}
