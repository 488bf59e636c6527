package model

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
	loads int
	err   error
}

func (m *memStore) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *memStore) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.data == nil {
		return nil, domain.ErrModelNotFound
	}
	return m.data, nil
}

type memLog struct {
	lines []string
	err   error
}

func (m *memLog) Append(_ context.Context, line string) error {
	if m.err != nil {
		return m.err
	}
	m.lines = append(m.lines, line)
	return nil
}

var seriesStart = time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)

// syntheticSeries is an hourly series with a daily cycle, deterministic noise
// and a slow upward drift.
func syntheticSeries(n int) domain.Series {
	records := make([]domain.Record, n)
	for i := range records {
		hour := i % 24
		cycle := 30.0
		if hour >= 7 && hour <= 10 || hour >= 18 && hour <= 21 {
			cycle = 80.0
		}
		noise := float64((i*37)%11) - 5
		records[i] = domain.Record{
			Timestamp: seriesStart.Add(time.Duration(i) * time.Hour),
			PM25:      cycle + noise + float64(i)/50,
		}
	}
	return domain.NewSeries(records)
}

func smallTrainConfig() TrainConfig {
	cfg := DefaultTrainConfig()
	cfg.Forest.Trees = 20
	return cfg
}
