package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/model-router/internal/analytics"
	"github.com/tributary-ai/model-router/internal/breaker"
	"github.com/tributary-ai/model-router/internal/config"
	"github.com/tributary-ai/model-router/internal/gateway"
	"github.com/tributary-ai/model-router/internal/metrics"
	"github.com/tributary-ai/model-router/internal/observability"
	"github.com/tributary-ai/model-router/internal/routing"
	"github.com/tributary-ai/model-router/internal/security"
	"github.com/tributary-ai/model-router/internal/server"
)

const version = "1.0.0"

// Application represents the main application
type Application struct {
	config *config.Config
	cache  *routing.DecisionCache
	server *server.Server
	logger *logrus.Logger
}

// NewApplication creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logrus.New()
	if err := setupLogger(logger, cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	obs := observability.NewCollectors(registry)

	store := metrics.NewStore(logger)
	for provider, cost := range cfg.Routing.ProviderCosts {
		store.Seed(provider, cost)
	}
	logger.WithField("providers", len(cfg.Routing.ProviderCosts)).Info("Provider metrics seeded")

	cache := routing.NewDecisionCache(cfg.Routing.CachePath, logger)
	circuit := breaker.NewWindowedBreaker(cfg.Breaker, logger)

	builder := routing.NewCandidateBuilder(cfg.Routing.Roles, cfg.ExecutionShortlists())
	router := routing.NewRouter(
		store,
		routing.NewTierClassifier(cfg.TierTable()),
		builder,
		cache,
		circuit,
		obs,
		logger,
	)

	gateways, err := buildGateway(cfg, logger)
	if err != nil {
		return nil, err
	}

	ledger := analytics.NewCostLedger()
	executor := routing.NewExecutor(gateways, store, ledger, circuit, obs, logger)

	srv := server.NewServer(cfg, server.Deps{
		Router:   router,
		Executor: executor,
		Reporter: analytics.NewReporter(ledger, store, cache),
		Store:    store,
		Auth:     security.NewAuthenticator(cfg.Security.APIKeys, cfg.Security.JWTSecret, logger),
		Limiter: security.NewRateLimiter(
			cfg.Security.RateLimiting.Enabled,
			cfg.Security.RateLimiting.RequestsPerMin,
			cfg.Security.RateLimiting.BurstSize,
			logger,
		),
		Registry: registry,
	}, logger)

	return &Application{
		config: cfg,
		cache:  cache,
		server: srv,
		logger: logger,
	}, nil
}

// buildGateway wires the vendor gateways that have credentials configured.
func buildGateway(cfg *config.Config, logger *logrus.Logger) (*gateway.Registry, error) {
	registry := gateway.NewRegistry()
	registered := 0

	if cfg.Providers.OpenAI.APIKey != "" {
		registry.Register("openai", gateway.NewOpenAIGateway(cfg.Providers.OpenAI, logger))
		logger.WithField("vendor", "openai").Info("Gateway registered")
		registered++
	}

	if cfg.Providers.Anthropic.APIKey != "" {
		registry.Register("anthropic", gateway.NewAnthropicGateway(cfg.Providers.Anthropic, logger))
		logger.WithField("vendor", "anthropic").Info("Gateway registered")
		registered++
	}

	if registered == 0 {
		return nil, fmt.Errorf("no gateways were registered, check your configuration and API keys")
	}

	return registry, nil
}

// Run starts the application
func (app *Application) Run() error {
	app.logger.WithField("version", version).Info("Starting model router")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		if err := app.server.Start(); err != nil {
			serverErrors <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case sig := <-sigChan:
		app.logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.WithError(err).Error("Server shutdown error")
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.cache.Close()

	app.logger.Info("Graceful shutdown completed")
	return nil
}

// setupLogger configures the logger based on configuration
func setupLogger(logger *logrus.Logger, cfg config.LoggingConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	switch cfg.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.Output, err)
		}
		logger.SetOutput(file)
	}

	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY                 OpenAI API key\n")
	fmt.Fprintf(os.Stderr, "  ANTHROPIC_API_KEY              Anthropic API key\n")
	fmt.Fprintf(os.Stderr, "  MODEL_ROUTER_PORT              Server port (default: 8080)\n")
	fmt.Fprintf(os.Stderr, "  MODEL_ROUTER_LOG_LEVEL         Log level (debug,info,warn,error,fatal)\n")
	fmt.Fprintf(os.Stderr, "  MODEL_ROUTER_LOG_FORMAT        Log format (json,text)\n")
	fmt.Fprintf(os.Stderr, "  MODEL_ROUTER_DEFAULT_STRATEGY  Default routing strategy\n")
	fmt.Fprintf(os.Stderr, "  MODEL_ROUTER_CACHE_PATH        Decision cache file path\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s --config configs/config.yaml\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY=sk-xxx ANTHROPIC_API_KEY=sk-ant-xxx %s\n", os.Args[0])
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("model-router %s\n", version)
		os.Exit(0)
	}

	app, err := NewApplication(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		app.logger.WithError(err).Fatal("Application error")
	}
}
