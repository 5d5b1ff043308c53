package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/psytest-service/internal/config"
	"github.com/SAP-F-2025/psytest-service/internal/crisis"
	"github.com/SAP-F-2025/psytest-service/internal/events"
	"github.com/SAP-F-2025/psytest-service/internal/handlers"
	"github.com/SAP-F-2025/psytest-service/internal/metrics"
	"github.com/SAP-F-2025/psytest-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/psytest-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/psytest-service/internal/services"
	"github.com/SAP-F-2025/psytest-service/internal/utils"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
	"github.com/SAP-F-2025/psytest-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	metrics.Init()

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache", "error", err)
		}
	}

	// Initialize repositories
	repoConfig := postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	}
	repoManager := postgres.NewRepositoryManager(repoConfig)
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Event bus
	publisher, err := newEventPublisher(appCtx, cfg.Events, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	// Crisis keywords, reloaded on change
	keywords := crisis.DefaultKeywordConfig()
	if cfg.Crisis.KeywordsFile != "" {
		keywords, err = crisis.LoadKeywordsFile(cfg.Crisis.KeywordsFile)
		if err != nil {
			log.Fatalf("Failed to load crisis keywords: %v", err)
		}
	}
	screener, err := crisis.NewScreener(keywords)
	if err != nil {
		log.Fatalf("Invalid crisis keyword configuration: %v", err)
	}
	holder := crisis.NewHolder(screener)

	var watcher *crisis.Watcher
	if cfg.Crisis.KeywordsFile != "" && cfg.Crisis.WatchKeywords {
		watcher, err = crisis.WatchFile(appCtx, cfg.Crisis.KeywordsFile, holder, slogLogger)
		if err != nil {
			logger.Warn("Crisis keyword reload disabled", "error", err)
		}
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(repo, slogLogger, validator, services.ServiceDependencies{
		Screener:     holder,
		Publisher:    publisher,
		Entitlements: casdoor.NewEntitlementChecker(repo.User()),
		Narrator:     services.NoopNarrativeGenerator{},
	})
	if err := serviceManager.Initialize(appCtx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	authMiddleware := handlers.NewCasdoorAuthMiddleware(cfg.Casdoor, repo.User())
	var rateLimiter *handlers.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = handlers.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, authMiddleware, rateLimiter)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "events", cfg.Events.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	stopApp()
	if watcher != nil {
		watcher.Close()
	}

	// Closes the event publisher
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Closes the database pool and redis
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}

func newEventPublisher(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (events.EventPublisher, error) {
	switch cfg.Driver {
	case "kafka":
		return events.NewKafkaEventPublisher(cfg.Brokers, cfg.TopicPrefix, logger)
	case "memory":
		pub, ch := events.NewInMemoryEventPublisher(cfg.TopicPrefix, logger)
		if err := events.LogEvents(ctx, ch, cfg.TopicPrefix, logger,
			events.EventSessionCompleted,
			events.EventResultRecalculated,
			events.EventCrisisDetected,
			events.EventGuardianNotification,
		); err != nil {
			return nil, err
		}
		return pub, nil
	default:
		return events.NoopEventPublisher{}, nil
	}
}
