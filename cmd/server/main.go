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

	"attrgo/internal/delivery"
	"attrgo/internal/infrastructure"
	"attrgo/internal/usecase"
	"attrgo/pkg/config"
	"attrgo/pkg/logger"
	"attrgo/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting attribution engine")

	m := metrics.New()

	configRepo := infrastructure.NewConfigRepository(log)
	touchpointRepo := infrastructure.NewTouchpointRepository(log)
	conversionRepo := infrastructure.NewConversionRepository(log)
	resultRepo := infrastructure.NewResultRepository(log)
	sinkClient := infrastructure.NewHTTPSinkClient(
		cfg.Sink.URL,
		cfg.Sink.Secret,
		cfg.Sink.RequestTimeout,
		cfg.Sink.RatePerSecond,
		log,
		m,
	)

	attributionService := usecase.NewAttributionService(
		configRepo,
		touchpointRepo,
		conversionRepo,
		resultRepo,
		log,
		m,
		cfg.Engine.WorkerPoolSize,
	)
	configService := usecase.NewConfigService(configRepo, log)
	resultService := usecase.NewResultService(resultRepo, sinkClient, log, m)

	handlers := delivery.NewHTTPHandlers(attributionService, configService, resultService, log, m)
	router := delivery.NewHTTPRouter(handlers, log, m, cfg.Server.RequestTimeout)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.SetupRoutes(),
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	log.Info("Server stopped")
}
