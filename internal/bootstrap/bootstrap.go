// Package bootstrap turns configuration into the concrete stores shared by
// the entry points.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aqi-forecast-service/internal/adapter/csvstore"
	"github.com/couchcryptid/aqi-forecast-service/internal/adapter/modelstore"
	"github.com/couchcryptid/aqi-forecast-service/internal/adapter/sqlite"
	"github.com/couchcryptid/aqi-forecast-service/internal/config"
	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/couchcryptid/aqi-forecast-service/internal/model"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
)

func noop() error { return nil }

// SeriesSource opens the configured time series store. The returned close
// function releases it.
func SeriesSource(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (domain.SeriesSource, func() error, error) {
	switch cfg.SeriesSource {
	case "csv":
		return csvstore.NewReader(cfg.SeriesPath, cfg.SeriesLocation, logger, metrics), noop, nil
	case "sqlite":
		db, err := sqlite.Open(cfg.SeriesSQLitePath)
		if err != nil {
			return nil, nil, err
		}
		r, err := sqlite.NewReader(db, cfg.SeriesSQLiteTable, cfg.SeriesLocation, logger, metrics)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return r, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown series source %q", cfg.SeriesSource)
	}
}

// ArtifactStore opens the configured model slot, wrapped in a CachedStore
// when MODEL_CACHE is set.
func ArtifactStore(cfg *config.Config) (model.ArtifactStore, error) {
	var store model.ArtifactStore
	switch cfg.ModelStore {
	case "file":
		store = modelstore.NewFileStore(cfg.ModelPath)
	case "bolt":
		store = modelstore.NewBoltStore(cfg.ModelBoltPath)
	default:
		return nil, fmt.Errorf("unknown model store %q", cfg.ModelStore)
	}

	if cfg.ModelCache {
		store = model.NewCachedStore(store)
	}
	return store, nil
}

// TrainConfig maps configuration onto the trainer settings.
func TrainConfig(cfg *config.Config) (model.TrainConfig, error) {
	strategy, err := model.ParseSplitStrategy(cfg.SplitStrategy)
	if err != nil {
		return model.TrainConfig{}, err
	}
	return model.TrainConfig{
		TestFraction: cfg.TestFraction,
		Seed:         cfg.Seed,
		Strategy:     strategy,
		Forest: model.ForestConfig{
			Trees:          cfg.Trees,
			MaxDepth:       cfg.MaxDepth,
			MinSamplesLeaf: cfg.MinSamplesLeaf,
			Seed:           cfg.Seed,
		},
	}, nil
}
