package model

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
)

// ReasonInsufficientHistory explains an unavailable prediction caused by a
// series shorter than two records or a gap among the last two.
const ReasonInsufficientHistory = "not enough history for lag features"

// Prediction is the outcome of PredictNext. Available is false when the
// series is too short; that is an expected result, not an error.
type Prediction struct {
	Available bool
	Value     float64
	Features  domain.FeatureRow
	Reason    string
}

// Predictor applies the current artifact to the next-step feature row.
type Predictor struct {
	store   ArtifactStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPredictor creates a Predictor. The artifact is read from store on every
// call, so a retrain is always reflected; wrap store in a CachedStore to
// trade that for fewer reads.
func NewPredictor(store ArtifactStore, logger *slog.Logger, metrics *observability.Metrics) *Predictor {
	return &Predictor{store: store, logger: logger, metrics: metrics}
}

// PredictNext loads the current model and predicts the pm2_5 value that
// follows the latest record. It returns domain.ErrModelNotFound when no
// model has been trained.
func (p *Predictor) PredictNext(ctx context.Context, s domain.Series) (Prediction, error) {
	artifact, err := p.load(ctx)
	if err != nil {
		p.metrics.Predictions.WithLabelValues("error").Inc()
		return Prediction{}, err
	}

	row, ok := domain.BuildInferenceRow(s)
	if !ok {
		p.metrics.Predictions.WithLabelValues("insufficient_history").Inc()
		return Prediction{Reason: ReasonInsufficientHistory}, nil
	}

	v, err := artifact.Predict(row)
	if err != nil {
		p.metrics.Predictions.WithLabelValues("error").Inc()
		return Prediction{}, fmt.Errorf("predict next: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		p.metrics.Predictions.WithLabelValues("error").Inc()
		return Prediction{}, fmt.Errorf("predict next: non-finite prediction %v", v)
	}

	p.metrics.Predictions.WithLabelValues("predicted").Inc()
	p.logger.Debug("predicted next pm2_5",
		"lag1", row.Lag1,
		"lag2", row.Lag2,
		"hour", row.Hour,
		"prediction", v,
		"model_trained_at", artifact.TrainedAt,
	)
	return Prediction{Available: true, Value: v, Features: row}, nil
}

func (p *Predictor) load(ctx context.Context) (*Artifact, error) {
	data, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return DecodeArtifact(data)
}
