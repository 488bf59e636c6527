package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// MinTrainingRows is the smallest feature table that yields non-empty train
// and test partitions at the default test fraction.
const MinTrainingRows = 3

// perfLogLayout is the timestamp layout of performance log lines.
const perfLogLayout = "2006-01-02 15:04:05"

// TrainConfig controls the split and the forest.
type TrainConfig struct {
	TestFraction float64
	Seed         int64
	Strategy     SplitStrategy
	Forest       ForestConfig
}

// DefaultTrainConfig is an 80/20 random split with seed 42 and 200 trees.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		TestFraction: 0.2,
		Seed:         42,
		Strategy:     SplitRandom,
		Forest:       DefaultForestConfig(),
	}
}

// Trainer fits, evaluates, and persists the pm2_5 model.
type Trainer struct {
	store   ArtifactStore
	perfLog PerformanceLog
	cfg     TrainConfig
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTrainer creates a Trainer. perfLog may be nil to skip the performance log.
func NewTrainer(store ArtifactStore, perfLog PerformanceLog, cfg TrainConfig, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Trainer {
	return &Trainer{
		store:   store,
		perfLog: perfLog,
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Train splits the table, fits the forest on the train partition, scores it
// on the test partition, and replaces the current artifact in the store.
func (t *Trainer) Train(ctx context.Context, table []domain.FeatureRow) (*Artifact, Metrics, error) {
	start := t.clock.Now()

	artifact, m, err := t.train(ctx, table)
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrInsufficientData) {
			outcome = "insufficient_data"
		}
		t.metrics.TrainingRuns.WithLabelValues(outcome).Inc()
		return nil, Metrics{}, err
	}

	t.metrics.TrainingRuns.WithLabelValues("success").Inc()
	t.metrics.TrainingDuration.Observe(t.clock.Since(start).Seconds())
	t.metrics.ModelMAE.Set(m.MAE)
	t.metrics.ModelRMSE.Set(m.RMSE)
	t.metrics.ModelR2.Set(m.R2)

	t.appendPerformance(ctx, artifact.TrainedAt, m)
	return artifact, m, nil
}

func (t *Trainer) train(ctx context.Context, table []domain.FeatureRow) (*Artifact, Metrics, error) {
	if len(table) < MinTrainingRows {
		return nil, Metrics{}, &domain.InsufficientDataError{Operation: "train", Have: len(table), Need: MinTrainingRows}
	}

	trainRows, testRows, err := splitRows(table, t.cfg.TestFraction, t.cfg.Strategy, t.cfg.Seed)
	if err != nil {
		return nil, Metrics{}, err
	}

	x, y := matrix(trainRows)
	forest, err := FitForest(x, y, t.cfg.Forest)
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("train: %w", err)
	}

	actual := make([]float64, len(testRows))
	predicted := make([]float64, len(testRows))
	for i, row := range testRows {
		actual[i] = row.Target
		if predicted[i], err = forest.Predict(row.Vector()); err != nil {
			return nil, Metrics{}, fmt.Errorf("evaluate: %w", err)
		}
	}

	m := Metrics{TrainRows: len(trainRows), TestRows: len(testRows)}
	m.MAE, m.RMSE, m.R2 = score(actual, predicted)
	m.Baseline = t.baseline(trainRows, testRows, actual)

	artifact := &Artifact{
		Kind:      ArtifactKind,
		Version:   ArtifactVersion,
		Features:  append([]string(nil), domain.FeatureNames...),
		TrainedAt: t.clock.Now().UTC(),
		Metrics:   m,
		Forest:    forest,
	}

	data, err := EncodeArtifact(artifact)
	if err != nil {
		return nil, Metrics{}, err
	}
	if err := t.store.Save(ctx, data); err != nil {
		return nil, Metrics{}, fmt.Errorf("save model: %w", err)
	}

	t.logger.Info("model trained",
		"train_rows", m.TrainRows,
		"test_rows", m.TestRows,
		"split_strategy", t.cfg.Strategy,
		"trees", t.cfg.Forest.Trees,
		"mae", m.MAE,
		"rmse", m.RMSE,
		"r2", m.R2,
	)
	return artifact, m, nil
}

// baseline fits the linear reference model. Failures only cost the
// comparison, never the training run.
func (t *Trainer) baseline(trainRows, testRows []domain.FeatureRow, actual []float64) *BaselineMetrics {
	lb, err := FitLinearBaseline(trainRows)
	if err != nil {
		t.logger.Warn("linear baseline skipped", "error", err, "train_rows", len(trainRows))
		return nil
	}
	predicted := make([]float64, len(testRows))
	for i, row := range testRows {
		if predicted[i], err = lb.Predict(row); err != nil {
			t.logger.Warn("linear baseline skipped", "error", err)
			return nil
		}
	}
	var b BaselineMetrics
	b.MAE, b.RMSE, b.R2 = score(actual, predicted)
	t.logger.Debug("linear baseline", "formula", lb.Formula(), "mae", b.MAE, "rmse", b.RMSE, "r2", b.R2)
	return &b
}

func (t *Trainer) appendPerformance(ctx context.Context, at time.Time, m Metrics) {
	if t.perfLog == nil {
		return
	}
	if err := t.perfLog.Append(ctx, FormatPerformanceLine(at, m)); err != nil {
		t.logger.Warn("append performance log failed", "error", err)
	}
}

// FormatPerformanceLine renders "<timestamp>, MAE=<v>, RMSE=<v>, R2=<v>".
func FormatPerformanceLine(at time.Time, m Metrics) string {
	return fmt.Sprintf("%s, MAE=%.4f, RMSE=%.4f, R2=%.4f", at.UTC().Format(perfLogLayout), m.MAE, m.RMSE, m.R2)
}

func matrix(rows []domain.FeatureRow) ([][]float64, []float64) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		x[i] = row.Vector()
		y[i] = row.Target
	}
	return x, y
}
