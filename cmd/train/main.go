// Command train fits the pm2_5 forecasting model on the configured time
// series and replaces the current model artifact.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/aqi-forecast-service/internal/adapter/perflog"
	"github.com/couchcryptid/aqi-forecast-service/internal/bootstrap"
	"github.com/couchcryptid/aqi-forecast-service/internal/config"
	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/couchcryptid/aqi-forecast-service/internal/model"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
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
	if err := run(cfg, logger); err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	source, closeSource, err := bootstrap.SeriesSource(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer closeSource()

	store, err := bootstrap.ArtifactStore(cfg)
	if err != nil {
		return err
	}

	trainCfg, err := bootstrap.TrainConfig(cfg)
	if err != nil {
		return err
	}

	s, err := source.ReadSeries(ctx)
	if err != nil {
		return err
	}
	if len(s.Observed()) == 0 {
		return fmt.Errorf("train: %w", domain.ErrEmptySeries)
	}

	trainer := model.NewTrainer(store, perflog.NewFileLog(cfg.PerfLogPath), trainCfg, clockwork.NewRealClock(), logger, metrics)
	_, m, err := trainer.Train(ctx, domain.BuildTrainingTable(s))
	if err != nil {
		return err
	}

	fmt.Printf("PM2.5 model trained. MAE: %.2f RMSE: %.2f R2: %.2f (train=%d test=%d)\n", m.MAE, m.RMSE, m.R2, m.TrainRows, m.TestRows)
	if m.Baseline != nil {
		fmt.Printf("Linear baseline.    MAE: %.2f RMSE: %.2f R2: %.2f\n", m.Baseline.MAE, m.Baseline.RMSE, m.Baseline.R2)
	}
	return nil
}
