package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/convoinsight/backend/internal/analytics"
	"github.com/convoinsight/backend/internal/api/handlers"
	rediscache "github.com/convoinsight/backend/internal/cache/redis"
	"github.com/convoinsight/backend/internal/metrics"
	"github.com/convoinsight/backend/internal/middleware/ratelimit"
	"github.com/convoinsight/backend/internal/middleware/security"
	"github.com/convoinsight/backend/internal/middleware/validation"
	"github.com/convoinsight/backend/internal/storage/sqlite"
	"github.com/convoinsight/backend/pkg/circuitbreaker"
	"github.com/convoinsight/backend/pkg/config"
	appLogger "github.com/convoinsight/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting conversation analytics API server")

	store, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer store.Close()

	err = store.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// The result cache is optional; without Redis every request recomputes.
	var cache analytics.ResultCache
	if cfg.Redis.Enabled {
		redisClient, err := rediscache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without result cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			cache = redisClient
		}
	}

	metrics.Init()

	breaker := circuitbreaker.New("record-store", circuitbreaker.Config{
		FailureThreshold: 5,
		Cooldown:         15 * time.Second,
		Logger:           appLogger.L(),
	})

	service := analytics.NewService(store, cache, breaker, analytics.Options{
		TopTriggers: cfg.Analytics.TopTriggers,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.RateLimit,
		Logger:               appLogger.L(),
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.Headers(security.HeadersConfig{IsDevelopment: cfg.Logging.Level == "debug"}))
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{MaxDays: cfg.Analytics.MaxWindowDays}))

	analyticsHandler := handlers.NewAnalyticsHandler(service, cfg.Analytics.DefaultWindowDays, cfg.Analytics.PeakHours)
	ingestHandler := handlers.NewIngestHandler(store, cache)

	api := app.Group("/api/v1")

	api.Post("/sessions", ingestHandler.CreateSession)
	api.Post("/messages", ingestHandler.CreateMessage)
	api.Post("/events", ingestHandler.CreateEvent)
	api.Post("/ratings", ingestHandler.CreateRating)

	usage := api.Group("/analytics/usage")
	usage.Get("/latency", analyticsHandler.Latency)
	usage.Get("/tool-usage", analyticsHandler.ToolUsage)
	usage.Get("/collections/health", analyticsHandler.CollectionsHealth)
	usage.Get("/activity", analyticsHandler.Activity)

	conversation := api.Group("/analytics/conversation")
	conversation.Get("/no-answer-rate", analyticsHandler.NoAnswerRate)
	conversation.Get("/citation-stats", analyticsHandler.CitationStats)
	conversation.Get("/answer-length", analyticsHandler.AnswerLength)

	user := api.Group("/analytics/user")
	user.Get("/sentiment", analyticsHandler.Sentiment)
	user.Get("/metrics", analyticsHandler.UserMetrics)

	app.Get("/metrics", metrics.Handler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if err := store.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
