package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/biodoia/contentforge/internal/pipeline"
	"github.com/biodoia/contentforge/pkg/cache"
	"github.com/biodoia/contentforge/pkg/config"
	"github.com/biodoia/contentforge/pkg/middleware"
	"github.com/biodoia/contentforge/pkg/models"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Version del servizio, esposta dal banner e dall'health check
const Version = "1.0.0"

// ContentStore è lo storage dei contenuti generati
type ContentStore interface {
	CreateGeneration(gen *models.Generation) error
	ListGenerations(limit int) ([]models.Generation, error)
	GetGenerationByID(id uuid.UUID) (*models.Generation, error)
	DeleteGeneration(id uuid.UUID) error
	CountGenerations() (int64, error)
	Ping() error
}

// Gateway è il server HTTP del servizio di generazione contenuti
type Gateway struct {
	config      *config.Config
	store       ContentStore
	runner      pipeline.Runner
	cache       cache.Cache
	app         *fiber.App
	limiter     *middleware.RateLimiter
	httpMetrics *middleware.HTTPMetrics
}

// New crea una nuova istanza del gateway
func New(cfg *config.Config, store ContentStore, runner pipeline.Runner, contentCache cache.Cache) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("pipeline runner is required")
	}

	app := fiber.New(fiber.Config{
		AppName:      "ContentForge",
		ServerHeader: "ContentForge/" + Version,
		ErrorHandler: customErrorHandler,
	})

	gw := &Gateway{
		config: cfg,
		store:  store,
		runner: runner,
		cache:  contentCache,
		app:    app,
	}

	if cfg.Server.RateLimit.Enabled {
		gw.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RPS:   cfg.Server.RateLimit.RPS,
			Burst: cfg.Server.RateLimit.Burst,
		})
	}

	if cfg.Monitoring.Prometheus.Enabled {
		gw.httpMetrics = middleware.NewHTTPMetrics("contentforge")
	}

	gw.setupMiddlewares()
	gw.setupRoutes()

	return gw, nil
}

// App espone la fiber app, utile nei test
func (g *Gateway) App() *fiber.App {
	return g.app
}

// customErrorHandler gestisce gli errori globali
func customErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":     "error",
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	})
}

// setupMiddlewares configura i middleware globali
func (g *Gateway) setupMiddlewares() {
	// Recovery per primo, per catturare tutti i panic
	g.app.Use(middleware.RecoveryWithLogger())

	g.app.Use(middleware.RequestID())

	g.app.Use(middleware.CORSWithOrigins(g.config.Server.AllowedOrigins))

	g.app.Use(middleware.Logging(middleware.LoggingConfig{
		SkipPaths: []string{"/health", "/ready", "/metrics"},
	}))

	if g.httpMetrics != nil {
		g.app.Use(g.httpMetrics.Handler())
	}
}

// setupRoutes configura le route del gateway
func (g *Gateway) setupRoutes() {
	g.app.Get("/", g.handleRoot)
	g.app.Get("/health", g.handleHealth)
	g.app.Get("/ready", g.handleReady)

	if g.config.Monitoring.Prometheus.Enabled {
		g.app.Get("/metrics", middleware.PrometheusHandler())
	}

	api := g.app.Group("/api")

	if g.limiter != nil {
		api.Post("/generate-content", g.handleGenerateContent, g.limiter.Handler())
	} else {
		api.Post("/generate-content", g.handleGenerateContent)
	}

	api.Get("/message", g.handleMessage)
	api.Get("/content", g.handleListContent)
	api.Get("/content/:id", g.handleGetContent)
	api.Delete("/content/:id", g.handleDeleteContent)
	api.Get("/pipeline", g.handlePipelineInfo)
}

// Start avvia il gateway
func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)

	log.Info().
		Str("addr", addr).
		Bool("prometheus", g.config.Monitoring.Prometheus.Enabled).
		Bool("rate_limit", g.limiter != nil).
		Msg("Starting gateway")

	return g.app.Listen(addr)
}

// Shutdown esegue lo shutdown graceful del gateway
func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.limiter != nil {
		g.limiter.Stop()
	}

	if g.cache != nil {
		if err := g.cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close cache")
		}
	}

	if err := g.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Gateway shutdown completed")
	return nil
}

// handleRoot banner del servizio
func (g *Gateway) handleRoot(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"service": "ContentForge",
		"version": Version,
	})
}

// handleMessage messaggio di benvenuto del backend
func (g *Gateway) handleMessage(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Hello from the ContentForge backend! 🚀",
	})
}

// handleHealth endpoint di health check.
// "missing" segnala l'assenza della API key del provider LLM,
// "degraded" segnala lo store non raggiungibile.
func (g *Gateway) handleHealth(c fiber.Ctx) error {
	status := "ok"

	if !g.config.HasLLMKey() {
		status = "missing"
	} else if err := g.store.Ping(); err != nil {
		log.Warn().Err(err).Msg("Store ping failed during health check")
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":    status,
		"service":   "ContentForge",
		"version":   Version,
		"timestamp": time.Now().Unix(),
	})
}

// handleReady endpoint di readiness check
func (g *Gateway) handleReady(c fiber.Ctx) error {
	if err := g.store.Ping(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"ready": false,
			"error": "database ping failed",
		})
	}

	return c.JSON(fiber.Map{
		"ready":     true,
		"timestamp": time.Now().Unix(),
	})
}
