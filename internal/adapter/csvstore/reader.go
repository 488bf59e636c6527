// Package csvstore reads the time series from the flat CSV file the
// collector appends to.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
)

// Reader implements domain.SeriesSource over a CSV file with a header row.
// Columns are matched by lowercased name and may appear in any order.
type Reader struct {
	path     string
	location string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewReader creates a Reader for path. A non-empty location restricts the
// series to rows with that location.
func NewReader(path, location string, logger *slog.Logger, metrics *observability.Metrics) *Reader {
	return &Reader{path: path, location: location, logger: logger, metrics: metrics}
}

// ReadSeries reads and parses the whole file. Malformed rows are dropped
// and counted; only an unreadable file or header is an error.
func (r *Reader) ReadSeries(ctx context.Context) (domain.Series, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()

	raws, err := readRaw(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read series %s: %w", r.path, err)
	}

	s, res := domain.ParseSeries(raws)
	r.metrics.RecordsRead.Add(float64(res.Total))
	r.metrics.RecordsDropped.Add(float64(res.Dropped))
	if res.Dropped > 0 {
		r.logger.Warn("dropped malformed records",
			"path", r.path,
			"dropped_records", res.Dropped,
			"total_records", res.Total,
			"first_error", res.Errors[0],
		)
	}

	if r.location != "" {
		s = s.ForLocation(r.location)
	}
	r.logger.Debug("series read", "path", r.path, "records", len(s.Observed()), "location", r.location)
	return s, nil
}

func readRaw(ctx context.Context, src io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	if err := validateHeader(columns); err != nil {
		return nil, err
	}

	var raws []domain.RawRecord
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			// A broken row becomes an empty raw record and is dropped as malformed.
			raws = append(raws, domain.RawRecord{Line: line, Values: map[string]string{}})
			continue
		}

		values := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				values[col] = record[i]
			}
		}
		raws = append(raws, domain.RawRecord{Line: line, Values: values})
	}
	return raws, nil
}

func validateHeader(columns []string) error {
	for _, required := range []string{domain.FieldTimestamp, domain.FieldPM25} {
		found := false
		for _, col := range columns {
			if col == required {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("missing required column %q", required)
		}
	}
	return nil
}
