package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockAlerts struct {
	alert *domain.Alert
}

func (m *mockAlerts) LatestAlert() (domain.Alert, bool) {
	if m.alert == nil {
		return domain.Alert{}, false
	}
	return *m.alert, true
}

func newTestServer(readyErr error, a *domain.Alert) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, &mockAlerts{alert: a}, logger)
}

func sampleAlert() *domain.Alert {
	return &domain.Alert{
		ID:             "alert-1",
		GeneratedAt:    time.Date(2024, 4, 27, 13, 5, 0, 0, time.UTC),
		Location:       "delhi",
		Timestamp:      time.Date(2024, 4, 27, 12, 0, 0, 0, time.UTC),
		PM25:           95,
		Severity:       domain.SeverityModerate,
		Trend:          domain.TrendWorsening,
		BestHour:       8,
		Advice:         domain.AdviceModerate,
		ForecastStatus: domain.ForecastUnavailable,
		ForecastReason: "no trained model",
	}
}

func serve(srv *httpadapter.Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(newTestServer(nil, nil), "/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(newTestServer(fmt.Errorf("no alert composed yet"), nil), "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAlert_JSON(t *testing.T) {
	rec := serve(newTestServer(nil, sampleAlert()), "/alert")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alert-1", body["id"])
	assert.Equal(t, "Moderate", body["severity"])
	assert.Equal(t, "unavailable", body["forecast_status"])
	assert.Equal(t, "no trained model", body["forecast_reason"])
	assert.InDelta(t, 8.0, body["best_hour"], 0)
}

func TestAlert_Text(t *testing.T) {
	rec := serve(newTestServer(nil, sampleAlert()), "/alert?format=text")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "AIR QUALITY ALERT")
	assert.Contains(t, rec.Body.String(), "Status: Moderate\n")
	assert.Contains(t, rec.Body.String(), "Prediction: unavailable (no trained model)\n")
}

func TestAlert_NoneYet(t *testing.T) {
	rec := serve(newTestServer(nil, nil), "/alert")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAlert_BadFormat(t *testing.T) {
	rec := serve(newTestServer(nil, sampleAlert()), "/alert?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlert_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil, sampleAlert()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/alert", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
