package domain

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// SeriesSource reads the full historical series from a TimeSeriesStore.
type SeriesSource interface {
	ReadSeries(ctx context.Context) (Series, error)
}

// Series is a timestamp-ordered sequence of records. Construct it with
// NewSeries or ParseSeries; both sort ascending.
type Series []Record

// NewSeries returns a sorted copy of records. Sorting is stable so records
// sharing a timestamp keep their storage order.
func NewSeries(records []Record) Series {
	s := make(Series, len(records))
	copy(s, records)
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
	return s
}

// ParseResult summarizes the ingestion of raw rows into a Series.
type ParseResult struct {
	Total   int
	Dropped int
	Errors  []error
}

// ParseSeries parses raw rows, excludes malformed ones and returns the
// sorted series. A row with a valid timestamp but no usable pm2_5 is still
// counted as dropped, but stays in the series as a gap record so lag
// windows spanning it are excluded. Exclusion is never fatal here; callers
// that need records report ErrEmptySeries themselves.
func ParseSeries(raws []RawRecord) (Series, ParseResult) {
	res := ParseResult{Total: len(raws)}
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := ParseRecord(raw)
		if err != nil {
			res.Dropped++
			res.Errors = append(res.Errors, err)
			if gap, ok := gapRecord(raw, err); ok {
				records = append(records, gap)
			}
			continue
		}
		records = append(records, rec)
	}
	return NewSeries(records), res
}

func gapRecord(raw RawRecord, err error) (Record, bool) {
	var mre *MalformedRecordError
	if !errors.As(err, &mre) || mre.Field != FieldPM25 {
		return Record{}, false
	}
	ts, ok := ParseTimestamp(raw.Values[FieldTimestamp])
	if !ok {
		return Record{}, false
	}
	return Record{
		Timestamp: ts,
		Location:  strings.TrimSpace(raw.Values[FieldLocation]),
		Gap:       true,
	}, true
}

// Observed returns the records that carry a pm2_5 value, preserving order.
func (s Series) Observed() Series {
	out := make(Series, 0, len(s))
	for _, r := range s {
		if !r.Gap {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the most recent observed record, or ErrEmptySeries.
func (s Series) Latest() (Record, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if !s[i].Gap {
			return s[i], nil
		}
	}
	return Record{}, ErrEmptySeries
}

// ForLocation returns the records for one location, preserving order.
// An empty location returns the series unchanged.
func (s Series) ForLocation(location string) Series {
	if location == "" {
		return s
	}
	out := make(Series, 0, len(s))
	for _, r := range s {
		if r.Location == location {
			out = append(out, r)
		}
	}
	return out
}
