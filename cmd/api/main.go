package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/flowhabit/flow-api/internal/config"
	"github.com/flowhabit/flow-api/internal/handlers"
	"github.com/flowhabit/flow-api/internal/middleware"
	"github.com/flowhabit/flow-api/internal/repository"
	"github.com/flowhabit/flow-api/internal/services"
	"github.com/flowhabit/flow-api/pkg/cache"
	"github.com/flowhabit/flow-api/pkg/logger"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", map[string]any{"error": err.Error()})
	}

	// Set log level
	logger.SetLevel(logger.ParseLevel(cfg.Monitoring.LogLevel))
	logger.Info("Starting Flow API", map[string]any{
		"version":     "1.0.0",
		"environment": cfg.API.Environment,
	})

	// Initialize database with retry logic
	var repo *repository.Repository
	err = repository.WithRetry(context.Background(), repository.DefaultRetryConfig, func() error {
		var retryErr error
		repo, retryErr = repository.NewRepository(
			cfg.Database.URL,
			cfg.Database.MaxConns,
			cfg.Database.MaxIdleConns,
		)
		return retryErr
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]any{"error": err.Error()})
	}
	defer repo.Close()
	logger.Info("Connected to PostgreSQL")

	// Health check database
	if err := repo.HealthCheck(context.Background()); err != nil {
		logger.Fatal("Database health check failed", map[string]any{"error": err.Error()})
	}

	// Initialize Redis cache
	var redisCache *cache.Cache
	err = repository.WithRetry(context.Background(), repository.DefaultRetryConfig, func() error {
		var retryErr error
		redisCache, retryErr = cache.NewCache(
			cfg.Redis.Address(),
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		return retryErr
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", map[string]any{"error": err.Error()})
	}
	defer redisCache.Close()
	logger.Info("Connected to Redis", map[string]any{
		"address": cfg.Redis.Address(),
	})

	// Initialize services
	authService := services.NewAuthService(repo, redisCache, &cfg.Auth)
	flowService := services.NewFlowService(repo, redisCache)
	settingsService := services.NewSettingsService(repo)
	logger.Info("Initialized services")

	// Initialize handlers
	handler := handlers.NewHandler(authService, flowService, settingsService, redisCache)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		DisableStartupMessage: false,
		ServerHeader:          "Flow",
		AppName:               "Flow API v1.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			logger.Error("Request error", map[string]any{
				"error": err.Error(),
				"path":  c.Path(),
				"code":  code,
			})
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(middleware.Recover())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.Security.CORSOrigins))

	// Rate limiter for unauthenticated auth endpoints
	rateLimiter := middleware.NewRateLimiter(redisCache, &cfg.RateLimit)
	requireAuth := middleware.RequireAuth(authService)

	// Routes
	app.Get("/health", handler.Health)
	if cfg.Monitoring.EnableMetrics {
		app.Get("/metrics", handler.Metrics)
	}

	v1 := app.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", rateLimiter.LimitByIP(), handler.Register)
	auth.Post("/login", rateLimiter.LimitByIP(), handler.Login)
	auth.Post("/logout", requireAuth, handler.Logout)

	v1.Get("/me", requireAuth, handler.Me)
	v1.Put("/me", requireAuth, handler.UpdateProfile)

	flows := v1.Group("/flows", requireAuth)
	flows.Post("/", handler.CreateFlow)
	flows.Get("/", handler.ListFlows)
	flows.Get("/:id", handler.GetFlow)
	flows.Put("/:id", handler.UpdateFlow)
	flows.Delete("/:id", handler.ArchiveFlow)
	flows.Post("/:id/entries", handler.RecordEntry)
	flows.Get("/:id/stats", handler.FlowStats)

	settings := v1.Group("/settings", requireAuth)
	settings.Get("/notifications", handler.GetNotificationSettings)
	settings.Put("/notifications", handler.UpdateNotificationSettings)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = app.ShutdownWithContext(ctx)
		logger.Info("Server shutdown complete")
		os.Exit(0)
	}()

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.API.Host, cfg.API.Port)
	logger.Info("Flow API started", map[string]any{"address": addr})

	if err := app.Listen(addr); err != nil {
		logger.Fatal("Server error", map[string]any{"error": err.Error()})
	}
}
