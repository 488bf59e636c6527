// Package alert combines the analytics over a series with the next-step
// forecast into a single Alert.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/couchcryptid/aqi-forecast-service/internal/model"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ReasonNoModel is the forecast reason when no model has been trained yet.
const ReasonNoModel = "no trained model"

// Forecaster predicts the pm2_5 value that follows a series.
type Forecaster interface {
	PredictNext(ctx context.Context, s domain.Series) (model.Prediction, error)
}

// Composer builds alerts. It keeps no state between calls.
type Composer struct {
	forecaster  Forecaster
	trendWindow int
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewComposer creates a Composer. A trendWindow of zero or less uses
// domain.DefaultTrendWindow.
func NewComposer(forecaster Forecaster, trendWindow int, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Composer {
	if trendWindow <= 0 {
		trendWindow = domain.DefaultTrendWindow
	}
	return &Composer{
		forecaster:  forecaster,
		trendWindow: trendWindow,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// Compose summarizes the latest record of s. It fails with
// domain.ErrEmptySeries when s is empty. A failed or unavailable forecast
// never fails the alert; it is reported through ForecastStatus instead.
func (c *Composer) Compose(ctx context.Context, s domain.Series) (domain.Alert, error) {
	sorted := domain.NewSeries(s)

	latest, err := sorted.Latest()
	if err != nil {
		return domain.Alert{}, fmt.Errorf("compose alert: %w", err)
	}
	bestHour, err := domain.BestTravelHour(sorted)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("compose alert: %w", err)
	}
	severity := domain.ClassifySeverity(latest.PM25)

	a := domain.Alert{
		ID:          uuid.NewString(),
		GeneratedAt: c.clock.Now().UTC(),
		Location:    latest.Location,
		Timestamp:   latest.Timestamp,
		PM25:        latest.PM25,
		PM10:        latest.PM10,
		AQI:         latest.AQI,
		Severity:    severity,
		Trend:       domain.CalculateTrend(sorted, c.trendWindow),
		BestHour:    bestHour,
		Advice:      domain.AdviceFor(severity),
	}
	c.forecast(ctx, sorted, &a)

	c.metrics.AlertsComposed.WithLabelValues(string(severity)).Inc()
	c.logger.Info("alert composed",
		"alert_id", a.ID,
		"location", a.Location,
		"pm2_5", a.PM25,
		"severity", a.Severity,
		"trend", a.Trend,
		"best_hour", a.BestHour,
		"forecast_status", a.ForecastStatus,
	)
	return a, nil
}

func (c *Composer) forecast(ctx context.Context, s domain.Series, a *domain.Alert) {
	a.ForecastStatus = domain.ForecastUnavailable

	pred, err := c.forecaster.PredictNext(ctx, s)
	switch {
	case errors.Is(err, domain.ErrModelNotFound):
		c.logger.Warn("forecast unavailable", "reason", ReasonNoModel)
		a.ForecastReason = ReasonNoModel
		return
	case err != nil:
		c.logger.Warn("forecast failed", "error", err)
		a.ForecastReason = "prediction failed: " + err.Error()
		return
	case !pred.Available:
		a.ForecastReason = pred.Reason
		return
	}

	direction := domain.CompareForecast(pred.Value, a.PM25)
	value := pred.Value
	a.ForecastStatus = domain.ForecastAvailable
	a.PredictedPM25 = &value
	a.ForecastDirection = &direction
}
