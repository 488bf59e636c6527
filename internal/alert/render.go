package alert

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
)

const renderTimeLayout = "2006-01-02 15:04"

var forecastText = map[domain.ForecastDirection]string{
	domain.ForecastWillWorsen:  "Pollution likely to worsen",
	domain.ForecastWillImprove: "Pollution likely to improve",
	domain.ForecastStable:      "Stable conditions expected",
}

// Render formats an alert as the plain-text banner shown to operators.
func Render(a domain.Alert) string {
	var b strings.Builder

	b.WriteString("========== AIR QUALITY ALERT ==========\n")
	if a.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", a.Location)
	}
	fmt.Fprintf(&b, "Time: %s\n", a.Timestamp.Format(renderTimeLayout))
	if a.AQI != nil {
		fmt.Fprintf(&b, "AQI Level: %d\n", *a.AQI)
	} else {
		b.WriteString("AQI Level: n/a\n")
	}
	fmt.Fprintf(&b, "PM2.5: %.2f µg/m³\n", a.PM25)
	if a.PM10 != nil {
		fmt.Fprintf(&b, "PM10: %.2f µg/m³\n", *a.PM10)
	} else {
		b.WriteString("PM10: n/a\n")
	}
	fmt.Fprintf(&b, "Status: %s\n", a.Severity)
	fmt.Fprintf(&b, "Trend: %s\n", a.Trend)
	fmt.Fprintf(&b, "Best Travel Hour: %d:00 – %d:00\n", a.BestHour, a.BestHour+1)
	fmt.Fprintf(&b, "Advice: %s\n", a.Advice)

	if a.ForecastStatus == domain.ForecastAvailable && a.PredictedPM25 != nil && a.ForecastDirection != nil {
		fmt.Fprintf(&b, "Predicted PM2.5 (next): %.2f µg/m³\n", *a.PredictedPM25)
		fmt.Fprintf(&b, "Forecast: %s\n", forecastText[*a.ForecastDirection])
	} else {
		reason := a.ForecastReason
		if reason == "" {
			reason = "Not enough data"
		}
		fmt.Fprintf(&b, "Prediction: unavailable (%s)\n", reason)
	}
	b.WriteString("=======================================\n")
	return b.String()
}
