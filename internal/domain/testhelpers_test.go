package domain

import "time"

var testBase = time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)

// hourly builds a series with one record per hour starting at startHour.
func hourly(startHour int, values ...float64) Series {
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = Record{
			Timestamp: testBase.Add(time.Duration(startHour+i) * time.Hour),
			PM25:      v,
		}
	}
	return NewSeries(records)
}

func pm25Values(s Series) []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.PM25
	}
	return out
}
