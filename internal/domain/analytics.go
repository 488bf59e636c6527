package domain

// Severity is the fixed-threshold class of a pm2_5 concentration.
type Severity string

const (
	SeveritySevere   Severity = "Severe"
	SeverityModerate Severity = "Moderate"
	SeverityLow      Severity = "Low"
)

// Trend is the direction of the latest value against its recent average.
type Trend string

const (
	TrendWorsening        Trend = "Worsening"
	TrendImproving        Trend = "Improving"
	TrendStable           Trend = "Stable"
	TrendInsufficientData Trend = "Insufficient Data"
)

const (
	// DefaultTrendWindow is the number of preceding values averaged by CalculateTrend.
	DefaultTrendWindow = 3
	// TrendMargin is the distance from the moving average, in µg/m³, that counts as a change.
	TrendMargin = 5.0

	// SevereThreshold and ModerateThreshold are exclusive lower bounds in µg/m³.
	SevereThreshold   = 100.0
	ModerateThreshold = 60.0
)

// ClassifySeverity maps pm2_5 to a severity class:
// > 100 Severe, > 60 Moderate, otherwise Low.
func ClassifySeverity(pm25 float64) Severity {
	switch {
	case pm25 > SevereThreshold:
		return SeveritySevere
	case pm25 > ModerateThreshold:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// CalculateTrend compares the latest pm2_5 with the mean of the window
// values before it. It needs window+1 records; fewer yields
// TrendInsufficientData. A non-positive window uses DefaultTrendWindow.
// Gap records are skipped.
func CalculateTrend(s Series, window int) Trend {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	s = NewSeries(s).Observed()
	if len(s) < window+1 {
		return TrendInsufficientData
	}
	recent := s[len(s)-window-1:]

	var sum float64
	for _, r := range recent[:window] {
		sum += r.PM25
	}
	previousAvg := sum / float64(window)
	current := recent[window].PM25

	switch {
	case current > previousAvg+TrendMargin:
		return TrendWorsening
	case current < previousAvg-TrendMargin:
		return TrendImproving
	default:
		return TrendStable
	}
}

// BestTravelHour returns the hour of day (0-23) with the lowest mean pm2_5
// across the observed records. Ties go to the earliest hour. A series with
// no observed record returns ErrEmptySeries rather than a default hour.
func BestTravelHour(s Series) (int, error) {
	s = s.Observed()
	if len(s) == 0 {
		return 0, ErrEmptySeries
	}

	var sums [24]float64
	var counts [24]int
	for _, r := range s {
		h := r.Timestamp.UTC().Hour()
		sums[h] += r.PM25
		counts[h]++
	}

	best := -1
	var bestAvg float64
	for h := range 24 {
		if counts[h] == 0 {
			continue
		}
		avg := sums[h] / float64(counts[h])
		if best < 0 || avg < bestAvg {
			best, bestAvg = h, avg
		}
	}
	return best, nil
}
