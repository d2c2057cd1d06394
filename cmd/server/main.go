package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/work-order-weather-service/internal/adapter/docstore"
	httpadapter "github.com/couchcryptid/work-order-weather-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/work-order-weather-service/internal/adapter/kafka"
	"github.com/couchcryptid/work-order-weather-service/internal/adapter/twc"
	"github.com/couchcryptid/work-order-weather-service/internal/config"
	"github.com/couchcryptid/work-order-weather-service/internal/domain"
	"github.com/couchcryptid/work-order-weather-service/internal/observability"
	"github.com/couchcryptid/work-order-weather-service/internal/pipeline"
	"github.com/couchcryptid/work-order-weather-service/internal/workorder"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := docstore.Open(docstore.Options{
		Dir:      cfg.DataDir,
		InMemory: cfg.DataInMemory,
		Indexes:  []docstore.Index{workorder.AssigneeIndex},
	}, logger)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		os.Exit(1)
	}

	var coordinates domain.CoordinateCache = docstore.NewCoordinateCache(store)
	if cfg.CoordinateMemoSize > 0 {
		memo, err := docstore.NewMemoCache(coordinates, cfg.CoordinateMemoSize, metrics)
		if err != nil {
			logger.Error("failed to build coordinate memo", "error", err)
			os.Exit(1)
		}
		coordinates = memo
	}

	// One outbound client for every weather call.
	httpClient, err := twc.NewHTTPClient(twc.HTTPClientConfig{
		Timeout:            cfg.WeatherTimeout,
		CAFile:             cfg.WeatherTLSCAFile,
		InsecureSkipVerify: cfg.WeatherTLSInsecure,
	}, logger)
	if err != nil {
		logger.Error("failed to build weather http client", "error", err)
		os.Exit(1)
	}
	weather := twc.NewClient(httpClient, twc.Config{
		BaseURL:         cfg.WeatherBaseURL,
		Country:         cfg.WeatherCountry,
		Language:        cfg.WeatherLanguage,
		Token:           cfg.WeatherAPIToken,
		Username:        cfg.WeatherUsername,
		Password:        cfg.WeatherPassword,
		BreakerFailures: cfg.WeatherBreakerFailure,
	}, metrics, logger)

	opts := []pipeline.Option{pipeline.WithConcurrency(cfg.WeatherConcurrency)}
	var writer *kafkaadapter.Writer
	if cfg.PublishingEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("publishing batch results", "topic", cfg.KafkaAlertsTopic, "brokers", cfg.KafkaBrokers)
	}
	aggregator := pipeline.New(coordinates, weather, weather, logger, metrics, opts...)

	orders := workorder.NewService(store, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, orders, aggregator, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("document store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
