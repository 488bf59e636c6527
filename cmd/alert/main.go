// Command alert composes one air quality alert from the configured time
// series and prints it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/aqi-forecast-service/internal/alert"
	"github.com/couchcryptid/aqi-forecast-service/internal/bootstrap"
	"github.com/couchcryptid/aqi-forecast-service/internal/config"
	"github.com/couchcryptid/aqi-forecast-service/internal/model"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	format := flag.String("format", "text", "output format: text or json")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(context.Background(), cfg, *format, logger); err != nil {
		logger.Error("alert failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, format string, logger *slog.Logger) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

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

	s, err := source.ReadSeries(ctx)
	if err != nil {
		return err
	}

	predictor := model.NewPredictor(store, logger, metrics)
	composer := alert.NewComposer(predictor, cfg.TrendWindow, clockwork.NewRealClock(), logger, metrics)
	a, err := composer.Compose(ctx, s)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	_, err = fmt.Print(alert.Render(a))
	return err
}
