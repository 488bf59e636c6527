package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecasting and alerting engine.
type Metrics struct {
	RecordsRead    prometheus.Counter
	RecordsDropped prometheus.Counter

	// Training metrics.
	TrainingRuns     *prometheus.CounterVec // labels: outcome={success,insufficient_data,error}
	TrainingDuration prometheus.Histogram
	ModelMAE         prometheus.Gauge
	ModelRMSE        prometheus.Gauge
	ModelR2          prometheus.Gauge

	// Inference and alert metrics.
	Predictions        *prometheus.CounterVec // labels: outcome={predicted,insufficient_history,error}
	AlertsComposed     *prometheus.CounterVec // labels: severity={Severe,Moderate,Low}
	AlertsPublished    prometheus.Counter
	AlertErrors        prometheus.Counter
	PipelineRunning    prometheus.Gauge
	AlertCycleDuration prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_forecast",
			Name:      "records_read_total",
			Help:      "Total rows read from the time series store.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_forecast",
			Name:      "records_dropped_total",
			Help:      "Rows excluded for an unparseable timestamp or pm2_5 value.",
		}),
		TrainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_forecast",
			Name:      "training_runs_total",
			Help:      "Model training runs by outcome.",
		}, []string{"outcome"}),
		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqi_forecast",
			Name:      "training_duration_seconds",
			Help:      "Duration of a complete split-fit-evaluate-persist cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ModelMAE: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqi_forecast",
			Name:      "model_mae",
			Help:      "Mean absolute error of the current model on its test partition.",
		}),
		ModelRMSE: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqi_forecast",
			Name:      "model_rmse",
			Help:      "Root mean squared error of the current model on its test partition.",
		}),
		ModelR2: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqi_forecast",
			Name:      "model_r2",
			Help:      "Coefficient of determination of the current model on its test partition.",
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_forecast",
			Name:      "predictions_total",
			Help:      "Next-step pm2_5 predictions by outcome.",
		}, []string{"outcome"}),
		AlertsComposed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_forecast",
			Name:      "alerts_composed_total",
			Help:      "Alerts composed by severity.",
		}, []string{"severity"}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_forecast",
			Name:      "alerts_published_total",
			Help:      "Alerts delivered to the alert sink.",
		}),
		AlertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_forecast",
			Name:      "alert_errors_total",
			Help:      "Alert cycles that failed to read, compose, or publish.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqi_forecast",
			Name:      "pipeline_running",
			Help:      "1 when the alert pipeline is active, 0 when shut down.",
		}),
		AlertCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqi_forecast",
			Name:      "alert_cycle_duration_seconds",
			Help:      "Duration of a complete read-compose-publish alert cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.RecordsRead,
		m.RecordsDropped,
		m.TrainingRuns,
		m.TrainingDuration,
		m.ModelMAE,
		m.ModelRMSE,
		m.ModelR2,
		m.Predictions,
		m.AlertsComposed,
		m.AlertsPublished,
		m.AlertErrors,
		m.PipelineRunning,
		m.AlertCycleDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsRead:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_forecast", Name: "records_read_total"}),
		RecordsDropped:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_forecast", Name: "records_dropped_total"}),
		TrainingRuns:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "aqi_forecast", Name: "training_runs_total"}, []string{"outcome"}),
		TrainingDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aqi_forecast", Name: "training_duration_seconds"}),
		ModelMAE:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aqi_forecast", Name: "model_mae"}),
		ModelRMSE:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aqi_forecast", Name: "model_rmse"}),
		ModelR2:            prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aqi_forecast", Name: "model_r2"}),
		Predictions:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "aqi_forecast", Name: "predictions_total"}, []string{"outcome"}),
		AlertsComposed:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "aqi_forecast", Name: "alerts_composed_total"}, []string{"severity"}),
		AlertsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_forecast", Name: "alerts_published_total"}),
		AlertErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_forecast", Name: "alert_errors_total"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aqi_forecast", Name: "pipeline_running"}),
		AlertCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aqi_forecast", Name: "alert_cycle_duration_seconds"}),
	}
}
