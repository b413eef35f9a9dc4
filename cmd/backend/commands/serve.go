package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biodoia/contentforge/internal/gateway"
	"github.com/biodoia/contentforge/internal/pipeline"
	"github.com/biodoia/contentforge/internal/providers"
	"github.com/biodoia/contentforge/internal/providers/anthropic"
	"github.com/biodoia/contentforge/internal/providers/openai"
	"github.com/biodoia/contentforge/internal/search"
	"github.com/biodoia/contentforge/pkg/cache"
	"github.com/biodoia/contentforge/pkg/config"
	"github.com/biodoia/contentforge/pkg/database"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	devMode       bool
	verbose       bool
	autoMigrate   bool
	allowDegraded bool
)

// ServeCmd rappresenta il comando serve
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ContentForge backend server",
	Long: `Start the ContentForge HTTP server.

The server exposes the content generation API backed by the
researcher -> writer -> editor agent pipeline.`,
	Example: `  # Start server with default settings
  contentforge serve

  # Start in development mode with verbose logging
  contentforge serve --dev --verbose

  # Start with custom config
  contentforge serve -c /path/to/config.yaml

  # Start without an LLM API key (generation will fail, API stays up)
  contentforge serve --allow-degraded`,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (pretty logging)")
	ServeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")
	ServeCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "Auto-run database migrations on startup")
	ServeCmd.Flags().BoolVar(&allowDegraded, "allow-degraded", false, "Start even if the LLM API key is missing")
}

func runServe(cmd *cobra.Command, args []string) error {
	setupLogger(verbose, devMode)

	// .env è opzionale, utile in sviluppo
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded environment from .env")
	}

	log.Info().Msg("🚀 Starting ContentForge")

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if !cfg.HasLLMKey() && !allowDegraded {
		return fmt.Errorf("LLM API key is not configured (set CONTENTFORGE_LLM_API_KEY or use --allow-degraded)")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Bool("dev_mode", devMode).
		Msg("Configuration loaded")

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info().
		Str("type", cfg.Database.Type).
		Msg("Database connected")

	if autoMigrate {
		log.Info().Msg("Running database migrations...")
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("✓ Database migrations completed")
	}

	// Provider LLM
	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	// Tool di ricerca web (opzionale)
	var searchTool search.Tool
	if cfg.Search.Enabled && cfg.Search.APIKey != "" {
		searchTool = search.NewSerperClient(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.Search.MaxResults)
		log.Info().Msg("Web research enabled")
	}

	// Cache Redis (opzionale): un errore di connessione non blocca l'avvio
	var contentCache cache.Cache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, caching disabled")
		} else {
			contentCache = redisCache
		}
	}

	metrics := pipeline.NewMetrics("contentforge")
	runner := pipeline.New(cfg, provider, searchTool, metrics)

	gw, err := gateway.New(cfg, db, runner, contentCache)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	go func() {
		if err := gw.Start(); err != nil {
			log.Fatal().Err(err).Msg("Gateway failed to start")
		}
	}()

	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("🌐 Server running on http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Msgf("📊 Health check: http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)
	if cfg.Monitoring.Prometheus.Enabled {
		log.Info().Msgf("📈 Metrics: http://%s:%d/metrics", cfg.Server.Host, cfg.Server.Port)
	}
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msg("Press Ctrl+C to stop")

	return waitForShutdown(gw)
}

// buildProvider istanzia il provider LLM configurato
func buildProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.LLM.Provider {
	case "openai", "":
		baseURL := cfg.LLM.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return openai.NewClient("openai", baseURL, cfg.LLM.APIKey), nil
	case "anthropic":
		return anthropic.NewProvider(anthropic.ProviderConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLM.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.LLM.Provider)
	}
}

func waitForShutdown(gw *gateway.Gateway) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("⏳ Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := gw.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
		return err
	}

	log.Info().Msg("✓ ContentForge stopped cleanly")
	return nil
}

func setupLogger(verbose, dev bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if dev {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}
}
