// Package domain models air-quality observations and the pure functions the
// forecasting and alerting engine is built on.
//
// # Data Source
//
// Observations originate from the collector, which polls the OpenWeather
// air_pollution endpoint and appends one flat row per poll to the store:
//
//	timestamp,aqi,co,no2,o3,so2,pm2_5,pm10
//
// Weather covariates (temperature, humidity, wind_speed) and a location
// column are carried when the upstream payload provides them.
//
// Timestamp formats:
//
//	"26-04-2024 15:10"     historical store (day-month-year)
//	"2024-04-26 15:10:00"  collector append format
//	"2024-04-26T15:10:00"  and RFC3339 are also accepted
//
// All timestamps are read as UTC at minute resolution. A row whose timestamp
// or pm2_5 value cannot be parsed is excluded, never defaulted. A row with a
// valid timestamp and a missing pm2_5 is kept as a gap record so that lag
// features never bridge it.
//
// # Features
//
// The regression model predicts pm2_5 from
//
//	pm2_5_lag1  value one step back
//	pm2_5_lag2  value two steps back
//	hour        hour of day of the row's own record
//
// Training rows and the inference row come from the same derivation
// ([BuildTrainingTable], [BuildInferenceRow]). A training row takes the hour
// of its target record; the inference row takes the hour of the latest
// record.
//
// # Classification
//
//	Severity: >100 Severe | >60 Moderate | otherwise Low   (µg/m³)
//	Trend:    latest vs mean of previous 3, margin ±5
//	Forecast: predicted vs latest, margin ±10
//
// The series is treated as one scope. Records from several locations are
// only analyzed separately when filtered with [Series.ForLocation].
package domain
