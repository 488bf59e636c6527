// Command genseries writes a deterministic synthetic hourly air quality
// series for local runs of train, alert and server. The series has a daily
// traffic cycle, slow drift and seeded noise, so the model has something
// to learn.
//
// Usage:
//
//	go run ./cmd/genseries -out data/aqi_weather.csv -hours 720
//	go run ./cmd/genseries -out data/aqi_weather.csv -sqlite data/aqi_weather.db
package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/adapter/sqlite"
	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
)

// storeLayout matches the timestamps the collector writes to the CSV store.
const storeLayout = "02-01-2006 15:04"

var columns = []string{
	domain.FieldTimestamp,
	domain.FieldLocation,
	domain.FieldAQI,
	domain.FieldCO,
	domain.FieldNO2,
	domain.FieldO3,
	domain.FieldSO2,
	domain.FieldPM25,
	domain.FieldPM10,
	domain.FieldTemperature,
	domain.FieldHumidity,
	domain.FieldWindSpeed,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/aqi_weather.csv", "output CSV path")
	sqlitePath := flag.String("sqlite", "", "also write the rows to this SQLite database")
	table := flag.String("table", "readings", "SQLite table name")
	hours := flag.Int("hours", 24*30, "number of hourly records")
	start := flag.String("start", "2024-04-01T00:00:00Z", "first timestamp (RFC3339)")
	location := flag.String("location", "delhi", "location identifier")
	seed := flag.Int64("seed", 42, "noise seed")
	flag.Parse()

	if err := sqlite.ValidateTable(*table); err != nil {
		return err
	}
	if *hours <= 0 {
		return fmt.Errorf("-hours must be positive")
	}
	startAt, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	rows := generate(startAt.UTC(), *hours, *location, rand.New(rand.NewSource(*seed))) //nolint:gosec // synthetic data

	if err := writeCSV(*out, rows); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	log.Printf("wrote %d records: %s", len(rows), *out)

	if *sqlitePath != "" {
		if err := writeSQLite(*sqlitePath, *table, rows); err != nil {
			return fmt.Errorf("writing SQLite: %w", err)
		}
		log.Printf("wrote %d records: %s (table %s)", len(rows), *sqlitePath, *table)
	}

	printStats(rows)
	return nil
}

func generate(start time.Time, hours int, location string, rng *rand.Rand) [][]string {
	rows := make([][]string, 0, hours)
	for i := range hours {
		at := start.Add(time.Duration(i) * time.Hour)
		h := at.Hour()

		// Morning and evening peaks, a quiet night, and a weekly rise.
		cycle := 35 + 30*math.Exp(-sq(float64(h)-9)/6) + 40*math.Exp(-sq(float64(h)-20)/8)
		drift := 10 * math.Sin(2*math.Pi*float64(i)/(24*7))
		pm25 := math.Max(1, cycle+drift+rng.NormFloat64()*6)
		pm10 := pm25*1.6 + rng.Float64()*10

		rows = append(rows, []string{
			at.Format(storeLayout),
			location,
			strconv.Itoa(aqiBand(pm25)),
			num(300 + pm25*4 + rng.Float64()*50),
			num(10 + pm25/4 + rng.Float64()*5),
			num(40 + 20*math.Sin(2*math.Pi*float64(h-14)/24)),
			num(3 + rng.Float64()*4),
			num(pm25),
			num(pm10),
			num(24 + 8*math.Sin(2*math.Pi*float64(h-9)/24)),
			num(55 - 20*math.Sin(2*math.Pi*float64(h-9)/24)),
			num(1 + rng.Float64()*5),
		})
	}
	return rows
}

// aqiBand maps pm2_5 to the provider's 1-5 index.
func aqiBand(pm25 float64) int {
	switch {
	case pm25 <= 10:
		return 1
	case pm25 <= 25:
		return 2
	case pm25 <= 50:
		return 3
	case pm25 <= 75:
		return 4
	default:
		return 5
	}
}

func sq(x float64) float64 { return x * x }

func num(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func writeSQLite(path, table string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	// Every column is stored as TEXT, the way a CSV import leaves it.
	ddl := `CREATE TABLE IF NOT EXISTS "` + table + `" (`
	insert := `INSERT INTO "` + table + `" VALUES (`
	for i, col := range columns {
		if i > 0 {
			ddl += ", "
			insert += ", "
		}
		ddl += col + " TEXT"
		insert += "?"
	}
	ddl += ")"
	insert += ")"

	if _, err := db.Exec(ddl); err != nil {
		return err
	}
	return insertRows(db, insert, rows)
}

func insertRows(db *sql.DB, insert string, rows [][]string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insert)
	if err != nil {
		tx.Rollback() //nolint:errcheck // already failing
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for _, row := range rows {
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback() //nolint:errcheck // already failing
			return err
		}
	}
	return tx.Commit()
}

func printStats(rows [][]string) {
	raws := make([]domain.RawRecord, len(rows))
	for i, row := range rows {
		values := make(map[string]string, len(columns))
		for j, col := range columns {
			values[col] = row[j]
		}
		raws[i] = domain.RawRecord{Line: i + 2, Values: values}
	}
	s, res := domain.ParseSeries(raws)
	s = s.Observed()

	counts := map[domain.Severity]int{}
	for _, r := range s {
		counts[domain.ClassifySeverity(r.PM25)]++
	}
	fmt.Printf("records: %d (dropped %d)\n", len(s), res.Dropped)
	fmt.Printf("severity: Severe=%d Moderate=%d Low=%d\n",
		counts[domain.SeveritySevere], counts[domain.SeverityModerate], counts[domain.SeverityLow])
	if best, err := domain.BestTravelHour(s); err == nil {
		fmt.Printf("best travel hour: %d:00\n", best)
	}
	fmt.Printf("trend at end: %s\n", domain.CalculateTrend(s, domain.DefaultTrendWindow))
}
