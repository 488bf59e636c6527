package csvstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aqi_weather.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sample = `timestamp,location,aqi,co,no2,o3,so2,pm2_5,pm10,temperature,humidity,wind_speed
27-04-2024 10:00,delhi,3,400.5,20.1,60,5.2,41,80,31.5,40,3.1
27-04-2024 08:00,delhi,2,380,18,55,5,40,78,29,45,2.5
2024-04-27 09:00:00,mumbai,2,300,15,50,4,42,70,30,70,4.2
not-a-date,delhi,2,300,15,50,4,42,70,30,70,4.2
27-04-2024 11:00,delhi,4,410,22,61,6,,90,32,38,3.0
27-04-2024 12:00,delhi,4,420,23,62,6,95,
`

func TestReader_ReadSeries(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	r := NewReader(writeFile(t, sample), "", discardLogger(), metrics)

	s, err := r.ReadSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, s, 5)

	day := time.Date(2024, 4, 27, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, day.Add(8*time.Hour), s[0].Timestamp)
	assert.Equal(t, day.Add(9*time.Hour), s[1].Timestamp)
	assert.Equal(t, "mumbai", s[1].Location)
	assert.Equal(t, day.Add(10*time.Hour), s[2].Timestamp)
	assert.Equal(t, day.Add(11*time.Hour), s[3].Timestamp)
	assert.True(t, s[3].Gap, "missing pm2_5 keeps its slot as a gap")
	assert.Equal(t, day.Add(12*time.Hour), s[4].Timestamp)
	assert.Len(t, s.Observed(), 4)

	require.NotNil(t, s[2].AQI)
	assert.Equal(t, 3, *s[2].AQI)
	require.NotNil(t, s[2].Temperature)
	assert.InDelta(t, 31.5, *s[2].Temperature, 0)
	assert.Nil(t, s[4].PM10)

	assert.InDelta(t, 6.0, testutil.ToFloat64(metrics.RecordsRead), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.RecordsDropped), 0)
}

func TestReader_LocationFilter(t *testing.T) {
	r := NewReader(writeFile(t, sample), "mumbai", discardLogger(), observability.NewMetricsForTesting())

	s, err := r.ReadSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, "mumbai", s[0].Location)
}

func TestReader_HeaderCaseAndOrder(t *testing.T) {
	content := "\ufeffPM2_5, Timestamp\n12.5,2024-04-27 08:00\n"
	r := NewReader(writeFile(t, content), "", discardLogger(), observability.NewMetricsForTesting())

	s, err := r.ReadSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.InDelta(t, 12.5, s[0].PM25, 0)
}

func TestReader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		r := NewReader(filepath.Join(t.TempDir(), "nope.csv"), "", discardLogger(), observability.NewMetricsForTesting())
		_, err := r.ReadSeries(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing pm2_5 column", func(t *testing.T) {
		r := NewReader(writeFile(t, "timestamp,pm10\n2024-04-27 08:00,3\n"), "", discardLogger(), observability.NewMetricsForTesting())
		_, err := r.ReadSeries(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"pm2_5"`)
	})
}

func TestReader_EmptyFile(t *testing.T) {
	r := NewReader(writeFile(t, ""), "", discardLogger(), observability.NewMetricsForTesting())

	s, err := r.ReadSeries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestReadRaw_BrokenRowKeepsLineNumbers(t *testing.T) {
	content := strings.Join([]string{
		"timestamp,pm2_5",
		`2024-04-27 08:00,"unterminated`,
	}, "\n")

	raws, err := readRaw(context.Background(), strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, 2, raws[0].Line)
	assert.Empty(t, raws[0].Values)
}
