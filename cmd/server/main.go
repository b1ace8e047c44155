// @title Inventory Service API
// @version 1.0
// @description Internal API for pharmacy inventory imports, category reconciliation, and run monitoring.
// @BasePath /internal
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/pharmstock/inventory-service/config"
	_ "github.com/pharmstock/inventory-service/docs"
	"github.com/pharmstock/inventory-service/internal/database"
	"github.com/pharmstock/inventory-service/internal/handlers"
	"github.com/pharmstock/inventory-service/internal/jobs"
	"github.com/pharmstock/inventory-service/internal/middleware"
	"github.com/pharmstock/inventory-service/internal/storage"
	"github.com/pharmstock/inventory-service/internal/sweepers"
	"github.com/pharmstock/inventory-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting inventory service")

	ctx := context.Background()

	telemetryCleanup := telemetry.MustInit(ctx, telemetry.GetConfigFromEnv())
	defer func() {
		if err := telemetryCleanup(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	if err := handleInterruptedRuns(ctx, logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to handle interrupted runs")
	}

	store, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize upload storage")
	}
	handlers.Configure(store, cfg.Import.MaxUploadSizeMB, cfg.Import.SimilarityThreshold)

	cleanupCfg := jobs.CleanupConfig{
		RunRetentionDays:    cfg.Import.RunRetentionDays,
		UploadRetentionDays: cfg.Import.UploadRetentionDays,
		ApprovalTimeout:     cfg.Import.ApprovalTimeout,
	}
	runSweeper := sweepers.NewRunSweeper(database.Pool(), store, logger, cleanupCfg, cfg.Import.SweepInterval)
	go runSweeper.Start(ctx)

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.Server.InternalAPIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(
		float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.GET("/categories", handlers.ListCategories)
		internal.GET("/classifications", handlers.ListClassifications)

		imports := internal.Group("/imports")
		{
			imports.POST("", handlers.UploadImport)
			imports.GET("/runs", handlers.ListImportRuns)
			imports.GET("/runs/:runId", handlers.GetImportRun)
			imports.GET("/runs/:runId/candidates", handlers.ListPendingCandidates)
			imports.POST("/runs/:runId/approve", handlers.ApproveCategories)
			imports.POST("/runs/:runId/cancel", handlers.CancelImport)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	runSweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}

// handleInterruptedRuns marks runs that were mid-flight when the service
// last stopped. Their in-memory approval sessions are gone, so they cannot
// resume; the upload has to be retried.
func handleInterruptedRuns(ctx context.Context, logger *zerolog.Logger) error {
	runStore := database.NewImportRunStore(database.Pool())

	count, err := runStore.MarkInterruptedRuns(ctx)
	if err != nil {
		return err
	}

	if count == 0 {
		logger.Info().Msg("No interrupted runs found")
		return nil
	}

	logger.Info().Int("count", count).Msg("Marked interrupted runs")
	return nil
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &logger
}
