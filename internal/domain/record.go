package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Measurement column names as written by the collector.
const (
	FieldTimestamp   = "timestamp"
	FieldLocation    = "location"
	FieldPM25        = "pm2_5"
	FieldPM10        = "pm10"
	FieldAQI         = "aqi"
	FieldCO          = "co"
	FieldNO2         = "no2"
	FieldO3          = "o3"
	FieldSO2         = "so2"
	FieldTemperature = "temperature"
	FieldHumidity    = "humidity"
	FieldWindSpeed   = "wind_speed"
)

// timestampLayouts are tried in order. The first is the layout of the
// historical store, the second the layout the collector appends with.
var timestampLayouts = []string{
	"02-01-2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// RawRecord is one untyped row handed over by a TimeSeriesStore.
// Values is keyed by lowercase column name.
type RawRecord struct {
	Line   int
	Values map[string]string
}

// Record is one typed observation. Optional measurements are nil when the
// upstream payload did not carry them.
//
// Gap marks a row whose timestamp parsed but whose pm2_5 did not. It keeps
// the row's position in the sequence for lag derivation; PM25 is zero and
// analytics skip it.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location,omitempty"`
	PM25        float64   `json:"pm2_5"`
	PM10        *float64  `json:"pm10,omitempty"`
	AQI         *int      `json:"aqi,omitempty"`
	CO          *float64  `json:"co,omitempty"`
	NO2         *float64  `json:"no2,omitempty"`
	O3          *float64  `json:"o3,omitempty"`
	SO2         *float64  `json:"so2,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	WindSpeed   *float64  `json:"wind_speed,omitempty"`
	Gap         bool      `json:"-"`
}

// ParseTimestamp parses s against the accepted layouts. The result is UTC at
// minute resolution.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Minute), true
		}
	}
	return time.Time{}, false
}

// ParseRecord converts a raw row into a Record. A missing or unparseable
// timestamp or pm2_5 value yields a *MalformedRecordError. Optional fields
// that fail to parse are left nil.
func ParseRecord(raw RawRecord) (Record, error) {
	ts, ok := ParseTimestamp(raw.Values[FieldTimestamp])
	if !ok {
		return Record{}, &MalformedRecordError{Line: raw.Line, Field: FieldTimestamp, Reason: "unparseable timestamp"}
	}

	pm25, ok := parseFloat(raw.Values[FieldPM25])
	if !ok {
		return Record{}, &MalformedRecordError{Line: raw.Line, Field: FieldPM25, Reason: "missing or non-numeric value"}
	}

	return Record{
		Timestamp:   ts,
		Location:    strings.TrimSpace(raw.Values[FieldLocation]),
		PM25:        pm25,
		PM10:        optionalFloat(raw.Values[FieldPM10]),
		AQI:         optionalInt(raw.Values[FieldAQI]),
		CO:          optionalFloat(raw.Values[FieldCO]),
		NO2:         optionalFloat(raw.Values[FieldNO2]),
		O3:          optionalFloat(raw.Values[FieldO3]),
		SO2:         optionalFloat(raw.Values[FieldSO2]),
		Temperature: optionalFloat(raw.Values[FieldTemperature]),
		Humidity:    optionalFloat(raw.Values[FieldHumidity]),
		WindSpeed:   optionalFloat(raw.Values[FieldWindSpeed]),
	}, nil
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func optionalFloat(s string) *float64 {
	v, ok := parseFloat(s)
	if !ok {
		return nil
	}
	return &v
}

// optionalInt accepts "3" as well as "3.0", which pandas writes for
// integer columns that once held a NaN.
func optionalInt(s string) *int {
	v, ok := parseFloat(s)
	if !ok || v != math.Trunc(v) {
		return nil
	}
	n := int(v)
	return &n
}
