// Command server composes an air quality alert every ALERT_INTERVAL, serves
// the latest one over HTTP and optionally publishes it to Kafka.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/aqi-forecast-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/aqi-forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/aqi-forecast-service/internal/alert"
	"github.com/couchcryptid/aqi-forecast-service/internal/bootstrap"
	"github.com/couchcryptid/aqi-forecast-service/internal/config"
	"github.com/couchcryptid/aqi-forecast-service/internal/model"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
	"github.com/couchcryptid/aqi-forecast-service/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	source, closeSource, err := bootstrap.SeriesSource(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to open series source", "error", err)
		os.Exit(1)
	}
	store, err := bootstrap.ArtifactStore(cfg)
	if err != nil {
		logger.Error("failed to open model store", "error", err)
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()
	predictor := model.NewPredictor(store, logger, metrics)
	composer := alert.NewComposer(predictor, cfg.TrendWindow, clock, logger, metrics)

	// Publishing is feature-flagged via ALERTS_KAFKA_ENABLED.
	var (
		publisher pipeline.Publisher
		kafkaPub  *kafkaadapter.Publisher
	)
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("kafka alert publishing enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka alert publishing disabled")
	}

	p := pipeline.New(source, composer, publisher, clock, cfg.AlertInterval, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start alert pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := closeSource(); err != nil {
		logger.Error("series source close error", "error", err)
	}

	logger.Info("shutdown complete")
}
