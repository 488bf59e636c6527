package domain

import "time"

// FeatureNames lists the model inputs in the order of FeatureRow.Vector.
var FeatureNames = []string{"pm2_5_lag1", "pm2_5_lag2", "hour"}

// FeatureRow is one supervised example: two lagged pm2_5 values and the
// hour of day of the target observation.
type FeatureRow struct {
	Lag1   float64   `json:"pm2_5_lag1"`
	Lag2   float64   `json:"pm2_5_lag2"`
	Hour   int       `json:"hour"`
	Target float64   `json:"pm2_5"`
	At     time.Time `json:"timestamp"`
}

// Vector returns the model inputs in FeatureNames order.
func (r FeatureRow) Vector() []float64 {
	return []float64{r.Lag1, r.Lag2, float64(r.Hour)}
}

// BuildTrainingTable derives one FeatureRow per record that has two
// predecessors. Rows without full lag history are excluded, as is every row
// whose window (the record and its two predecessors) contains a gap record,
// so a gap removes up to three rows and lags never reach across it.
func BuildTrainingTable(s Series) []FeatureRow {
	s = NewSeries(s)
	if len(s) < 3 {
		return []FeatureRow{}
	}
	rows := make([]FeatureRow, 0, len(s)-2)
	for i := 2; i < len(s); i++ {
		if s[i].Gap || s[i-1].Gap || s[i-2].Gap {
			continue
		}
		row := featureRow(s[i-1].PM25, s[i-2].PM25, s[i].Timestamp)
		row.Target = s[i].PM25
		rows = append(rows, row)
	}
	return rows
}

// BuildInferenceRow returns the features for the latest record: its pm2_5
// as lag1, the previous record's as lag2, and its own hour of day. Returns
// false when fewer than two records exist or when either of the last two
// is a gap.
func BuildInferenceRow(s Series) (FeatureRow, bool) {
	s = NewSeries(s)
	if len(s) < 2 {
		return FeatureRow{}, false
	}
	last, prev := s[len(s)-1], s[len(s)-2]
	if last.Gap || prev.Gap {
		return FeatureRow{}, false
	}
	return featureRow(last.PM25, prev.PM25, last.Timestamp), true
}

// featureRow is the single derivation shared by training and inference.
func featureRow(lag1, lag2 float64, at time.Time) FeatureRow {
	return FeatureRow{
		Lag1: lag1,
		Lag2: lag2,
		Hour: at.UTC().Hour(),
		At:   at,
	}
}
