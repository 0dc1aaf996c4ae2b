// Command server runs the StorePulse snapshot API and the daily rebuild scheduler.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsnapshot "github.com/storepulse/backend/internal/application/snapshot"
	"github.com/storepulse/backend/internal/infrastructure/cache"
	"github.com/storepulse/backend/internal/infrastructure/config"
	"github.com/storepulse/backend/internal/infrastructure/logger"
	"github.com/storepulse/backend/internal/infrastructure/migration"
	"github.com/storepulse/backend/internal/infrastructure/persistence"
	"github.com/storepulse/backend/internal/infrastructure/scheduler"
	"github.com/storepulse/backend/internal/infrastructure/telemetry"
	"github.com/storepulse/backend/internal/interfaces/http/handler"
	"github.com/storepulse/backend/internal/interfaces/http/middleware"
	"github.com/storepulse/backend/internal/interfaces/http/router"
	"github.com/storepulse/backend/migrations"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StorePulse backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry is installed before the database so otelgorm picks up the
	// global tracer.
	otelProviders, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ExportLogs:        cfg.Telemetry.ExportLogs,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log = otelProviders.Bridge(log, cfg.Telemetry.ServiceName)

	db, err := persistence.NewDatabase(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		applyMigrations(db, log)
	}

	// Repositories and the rebuild lease
	commerceRepo := persistence.NewGormCommerceRepository(db.DB)
	snapshotRepo := persistence.NewGormSnapshotRepository(db.DB).WithBatchSize(cfg.Snapshot.InsertBatchSize)
	jobHistory := scheduler.NewGormJobHistory(db.DB)

	locker, err := cache.NewRebuildLocker(ctx, cfg, cache.WithLogger(log.Named("locker")))
	if err != nil {
		log.Fatal("Failed to initialize rebuild locker", zap.Error(err))
	}
	defer func() {
		if err := locker.Close(); err != nil {
			log.Error("Error closing rebuild locker", zap.Error(err))
		}
	}()

	// Application services
	rebuildService := appsnapshot.NewRebuildService(commerceRepo, snapshotRepo, locker, appsnapshot.Config{
		DefaultWindowDays: cfg.Snapshot.DefaultWindowDays,
		PageSize:          cfg.Snapshot.PageSize,
		ItemBatchSize:     cfg.Snapshot.ItemBatchSize,
		LeaseTTL:          cfg.Snapshot.LeaseTTL,
	}, log.Named("rebuild"))
	snapshotMetrics, err := telemetry.NewSnapshotMetrics(telemetry.SnapshotMetricsConfig{
		Meter:  otelProviders.Meter("storepulse/snapshot"),
		Logger: log,
	})
	if err != nil {
		log.Warn("Snapshot metrics unavailable", zap.Error(err))
	} else {
		rebuildService.SetMetrics(snapshotMetrics)
	}
	queryService := appsnapshot.NewQueryService(snapshotRepo, commerceRepo)

	// The worker pool always runs so manual async rebuilds work with the
	// daily cron turned off.
	cronConfig := scheduler.DefaultCronSchedulerConfig()
	cronConfig.Enabled = cfg.Scheduler.Enabled
	cronConfig.DailyCronSchedule = cfg.Scheduler.DailyCronSchedule
	cronConfig.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
	cronConfig.JobTimeout = cfg.Scheduler.JobTimeout
	cronConfig.RetryAttempts = cfg.Scheduler.RetryAttempts
	cronConfig.RetryDelay = cfg.Scheduler.RetryDelay
	cronScheduler := scheduler.NewCronScheduler(cronConfig, rebuildService, commerceRepo, jobHistory, log.Named("scheduler"))
	if err := cronScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start snapshot scheduler", zap.Error(err))
	}

	// Handlers
	snapshotHandler := handler.NewSnapshotHandler(queryService, rebuildService, cronScheduler, jobHistory)
	systemHandler := handler.NewSystemHandler(db, cronScheduler, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id first so every later layer can log it,
	// tracing before the logger so log lines carry the span.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health"},
	})...)
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Telemetry: otelProviders,
		Logger:    log,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting keys on the organization, so it sits on the organization routes
	var orgMiddleware []gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		orgMiddleware = append(orgMiddleware, middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	router.Setup(engine, router.Handlers{
		Snapshot: snapshotHandler,
		System:   systemHandler,
	}, router.Config{
		APIVersion:             "v1",
		OrganizationMiddleware: orgMiddleware,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := cronScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Snapshot scheduler did not stop cleanly", zap.Error(err))
	}
	if err := otelProviders.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// applyMigrations runs the embedded migrations to the latest version
func applyMigrations(db *persistence.Database, log *zap.Logger) {
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
	}
	m, err := migration.New(sqlDB, migration.EmbeddedSource(migrations.FS), log.Named("migrate"))
	if err != nil {
		log.Fatal("Failed to initialize migrator", zap.Error(err))
	}
	if err := m.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
}
