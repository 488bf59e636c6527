package domain

import "time"

// ForecastDirection compares a predicted pm2_5 value with the current one.
type ForecastDirection string

const (
	ForecastWillWorsen  ForecastDirection = "WillWorsen"
	ForecastWillImprove ForecastDirection = "WillImprove"
	ForecastStable      ForecastDirection = "Stable"
)

// ForecastMargin is the distance, in µg/m³, a prediction must move from the
// current value to count as a change.
const ForecastMargin = 10.0

// ForecastStatus tells whether an Alert carries a prediction.
type ForecastStatus string

const (
	ForecastAvailable   ForecastStatus = "available"
	ForecastUnavailable ForecastStatus = "unavailable"
)

// Advice strings selected by severity.
const (
	AdviceSevere   = "Avoid outdoor travel and wear masks"
	AdviceModerate = "Limit prolonged outdoor activities"
	AdviceLow      = "Safe for travel"
)

// Alert is the situational summary for the latest observation. It is built
// fresh on every request and never persisted by the engine.
type Alert struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Location    string    `json:"location,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	PM25      float64   `json:"pm2_5"`
	PM10      *float64  `json:"pm10,omitempty"`
	AQI       *int      `json:"aqi,omitempty"`

	Severity Severity `json:"severity"`
	Trend    Trend    `json:"trend"`
	BestHour int      `json:"best_hour"`
	Advice   string   `json:"advice"`

	ForecastStatus    ForecastStatus     `json:"forecast_status"`
	PredictedPM25     *float64           `json:"predicted_pm2_5,omitempty"`
	ForecastDirection *ForecastDirection `json:"forecast_direction,omitempty"`
	ForecastReason    string             `json:"forecast_reason,omitempty"`
}

// AdviceFor returns the advice text for a severity class.
func AdviceFor(s Severity) string {
	switch s {
	case SeveritySevere:
		return AdviceSevere
	case SeverityModerate:
		return AdviceModerate
	default:
		return AdviceLow
	}
}

// CompareForecast classifies predicted against current using ForecastMargin.
func CompareForecast(predicted, current float64) ForecastDirection {
	switch {
	case predicted > current+ForecastMargin:
		return ForecastWillWorsen
	case predicted < current-ForecastMargin:
		return ForecastWillImprove
	default:
		return ForecastStable
	}
}
