package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/alert"
	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AlertSource provides the most recently composed alert.
type AlertSource interface {
	LatestAlert() (domain.Alert, bool)
}

// Server exposes health, readiness, metrics, and alert HTTP endpoints.
type Server struct {
	httpServer *http.Server
	alerts     AlertSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /alert routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, alerts AlertSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		alerts: alerts,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /alert", s.handleAlert)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleAlert serves the latest alert as JSON, or as the text banner with
// ?format=text.
func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	a, ok := s.alerts.LatestAlert()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no alert composed yet"})
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, a)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(alert.Render(a))); err != nil {
			s.logger.Debug("write alert response failed", "error", err)
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be json or text"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
