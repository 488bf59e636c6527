// Package sqlite reads the time series from a SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
	_ "github.com/mattn/go-sqlite3"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open opens the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

// ValidateTable rejects table names that are not plain SQL identifiers.
// Table names are interpolated into queries, never bound.
func ValidateTable(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// Reader implements domain.SeriesSource over one table. Column names follow
// the CSV header names; extra columns are ignored.
type Reader struct {
	db       *sql.DB
	table    string
	location string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewReader creates a Reader over table. The table name must be a plain
// SQL identifier.
func NewReader(db *sql.DB, table, location string, logger *slog.Logger, metrics *observability.Metrics) (*Reader, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	return &Reader{db: db, table: table, location: location, logger: logger, metrics: metrics}, nil
}

// ReadSeries loads every row of the table. Storage order is irrelevant;
// the series is sorted after parsing.
func (r *Reader) ReadSeries(ctx context.Context) (domain.Series, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT * FROM "`+r.table+`"`)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", r.table, err)
	}
	for i := range cols {
		cols[i] = strings.ToLower(cols[i])
	}

	var raws []domain.RawRecord
	cells := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		values := make(map[string]string, len(cols))
		for i, col := range cols {
			values[col] = cellString(cells[i])
		}
		raws = append(raws, domain.RawRecord{Line: len(raws) + 1, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", r.table, err)
	}

	s, res := domain.ParseSeries(raws)
	r.metrics.RecordsRead.Add(float64(res.Total))
	r.metrics.RecordsDropped.Add(float64(res.Dropped))
	if res.Dropped > 0 {
		r.logger.Warn("dropped malformed records",
			"table", r.table,
			"dropped_records", res.Dropped,
			"total_records", res.Total,
			"first_error", res.Errors[0],
		)
	}

	if r.location != "" {
		s = s.ForLocation(r.location)
	}
	return s, nil
}

// cellString renders a scanned value the way it would appear in the CSV
// store so one parser serves both sources.
func cellString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
