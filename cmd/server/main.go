// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartstock/backend-go/internal/api"
	"github.com/smartstock/backend-go/internal/cache"
	"github.com/smartstock/backend-go/internal/config"
	"github.com/smartstock/backend-go/internal/repository"
	"github.com/smartstock/backend-go/internal/repository/postgres"
	"github.com/smartstock/backend-go/internal/service"
	"github.com/smartstock/backend-go/internal/storage"
	"github.com/smartstock/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize cache
	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, continuing without caching")
		forecastCache = cache.NewNoopForecastCache()
	}

	// Optional S3-compatible artifact store
	var objects storage.ObjectStorage
	if cfg.Forecast.ModelBucket != "" {
		client, err := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.Forecast.S3Endpoint,
			AccessKey: cfg.Forecast.S3AccessKey,
			SecretKey: cfg.Forecast.S3SecretKey,
			Bucket:    cfg.Forecast.ModelBucket,
			UseSSL:    cfg.Forecast.S3UseSSL,
		})
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		objects = client
	}

	// Initialize services
	histRepo := repository.NewHistoricalRepository(db.DB)
	forecastRepo := repository.NewForecastRepository(db)
	productRepo := repository.NewProductRepository(db.DB)
	forecastService := service.NewForecastService(histRepo, forecastRepo, forecastCache, objects, cfg.Forecast)

	// Load forecasting assets at startup. A failure here is not fatal:
	// forecast requests return 503 until a reload succeeds.
	initCtx, cancelInit := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := forecastService.Init(initCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load forecasting assets, serving unavailable until reload")
	}
	cancelInit()

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		ForecastService: forecastService,
		ProductRepo:     productRepo,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
