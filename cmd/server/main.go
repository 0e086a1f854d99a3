package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/poolchaos/personalfit-api/cmd"
	"github.com/poolchaos/personalfit-api/internal/adapters/cache/memory"
	"github.com/poolchaos/personalfit-api/internal/adapters/cache/redis"
	"github.com/poolchaos/personalfit-api/internal/analytics"
	"github.com/poolchaos/personalfit-api/internal/budget"
	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/gateway"
	"github.com/poolchaos/personalfit-api/internal/maintenance"
	"github.com/poolchaos/personalfit-api/internal/modeldata"
	"github.com/poolchaos/personalfit-api/internal/platform/logger"
	"github.com/poolchaos/personalfit-api/internal/platform/otel"
	"github.com/poolchaos/personalfit-api/internal/retry"
	"github.com/poolchaos/personalfit-api/internal/server"
	"github.com/poolchaos/personalfit-api/internal/server/validator"
	"github.com/poolchaos/personalfit-api/internal/store/cache"
	"github.com/poolchaos/personalfit-api/internal/store/sqlite"
	"github.com/poolchaos/personalfit-api/internal/tokens"
	"github.com/poolchaos/personalfit-api/internal/workout"

	// Import providers to trigger init() registration
	_ "github.com/poolchaos/personalfit-api/internal/llm/anthropic"
	_ "github.com/poolchaos/personalfit-api/internal/llm/google"
	_ "github.com/poolchaos/personalfit-api/internal/llm/ollama"
	_ "github.com/poolchaos/personalfit-api/internal/llm/openai"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		EnableColor: cfg.Server.Env != "production",
	})
	log := logger.Get()
	defer logger.Sync()

	go cmd.CheckForUpdates()

	validator.Init()

	if cfg.Telemetry.Enabled {
		shutdown, err := otel.Setup(context.Background(), otel.Config{
			ServiceName: "personalfit-api",
			Version:     cmd.AppVersion,
			Environment: cfg.Server.Env,
		}, log, os.Stdout)
		if err != nil {
			log.Warn("Tracing disabled", zap.Error(err))
		} else {
			defer func() {
				_ = shutdown(context.Background())
			}()
		}
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}

	var cacheSvc cache.CacheService
	if cfg.Redis.Enabled {
		cacheSvc, err = redis.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Info("Cache backend: redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		cacheSvc = memory.NewMemoryCache()
		log.Info("Cache backend: in-memory")
	}

	catalog := modeldata.NewCatalog(cfg.Catalog.Path, log)
	if err := catalog.LoadFile(); err != nil {
		log.Warn("Model catalog file not loaded, using built-ins", zap.Error(err))
	}

	estimator := tokens.NewEstimator(log, catalog, cfg.Estimator.DefaultModel, cfg.Estimator.OutputRatio)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gatewaySvc := gateway.NewService(log, cfg.Routes)
	registered := gateway.BootstrapProviders(ctx, gatewaySvc, cfg.Providers, log)
	if registered == 0 {
		log.Warn("No providers registered; generation requests will fail until one is configured")
	}

	// Background, not the signal context: the ingestor must keep
	// accepting records while the HTTP server drains and only stops
	// via the explicit Stop below.
	ingestor := analytics.NewIngestor(log, repo, cfg.Analytics)
	ingestor.Start(context.Background())

	generator := workout.NewGenerator(workout.Deps{
		Logger:    log,
		Gateway:   gatewaySvc,
		Estimator: estimator,
		Catalog:   catalog,
		Repo:      repo,
		Ingestor:  ingestor,
		Budget:    budget.FromConfig(cfg.BudgetFor("workout_generation")),
		Retry: retry.Config{
			MaxRetries:      cfg.Retry.MaxRetries,
			BaseDelay:       time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
			MaxDelay:        time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
			ExponentialBase: cfg.Retry.ExponentialBase,
			FallbackOrder:   cfg.Retry.FallbackOrder,
		},
		DefaultModel: cfg.Estimator.DefaultModel,
	})

	scheduler := maintenance.NewScheduler(log, repo, catalog, cfg.Maintenance, cfg.Catalog)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
	}

	srv := server.New(cfg, log, server.Deps{
		Generator: generator,
		Gateway:   gatewaySvc,
		Repo:      repo,
		Cache:     cacheSvc,
		Catalog:   catalog,
		Analytics: analytics.NewService(repo, cacheSvc),
		Version:   cmd.AppVersion,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Generation calls block on upstream models through retries, so
		// the write window has to outlast the whole retry ladder.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		log.Info("Server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
			zap.Int("providers", registered),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	// After the server drains nothing can Record, so the ingestor flush
	// is the complete picture.
	ingestor.Stop()
	scheduler.Stop()

	if err := estimator.Close(); err != nil {
		log.Error("Estimator close error", zap.Error(err))
	}
	if err := repo.Close(); err != nil {
		log.Error("Database close error", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
