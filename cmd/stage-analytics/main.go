package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"stage-analytics-service/internal/auth"
	"stage-analytics-service/internal/cache"
	"stage-analytics-service/internal/config"
	"stage-analytics-service/internal/db"
	httphandler "stage-analytics-service/internal/http"
	"stage-analytics-service/internal/http/middleware"
	"stage-analytics-service/internal/logger"
	"stage-analytics-service/internal/metrics"
	"stage-analytics-service/internal/repository"
	"stage-analytics-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vehicles, closeStore, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to connect vehicle store")
	}
	defer closeStore()

	var reportCache service.Cache
	if cfg.Redis.Addr != "" {
		client := cache.NewRedisClient(cfg.Redis)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			appLogger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, reports will not be cached")
		} else {
			reportCache = cache.NewReportCache(client, cfg.Redis.TTL)
		}
	}

	recorder := metrics.NewRecorder()
	analyticsService := service.NewAnalyticsService(vehicles, reportCache, recorder, appLogger, service.Options{
		Location:       cfg.Analytics.Location,
		DefaultWindows: cfg.Analytics.DefaultWindows,
		MaxRangeDays:   cfg.Analytics.MaxRangeDays,
		Workers:        cfg.Analytics.Workers,
	})

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(analyticsService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, recorder, appLogger, httphandler.RouterConfig{
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", addr).Str("timezone", cfg.Analytics.Timezone).Msg("starting stage analytics service")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		appLogger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("failed to start server")
			closeStore()
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (service.VehicleSource, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		database, err := db.New(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := database.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewVehicleRepository(database), closeFn, nil
	default:
		client, database, err := db.NewMongo(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		repo, err := repository.NewMongoVehicleRepository(ctx, database, cfg.Mongo.Collection)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil
	}
}
