package api

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health tracks whether the process is serving or shutting down, for the
// health endpoint to report.
type Health struct {
	shuttingDown atomic.Bool
}

// NewHealth creates a health state in the running position.
func NewHealth() *Health {
	return &Health{}
}

// SetShuttingDown flips the health endpoint to 503 shutting_down. Called
// once when the termination signal arrives, before teardown begins.
func (h *Health) SetShuttingDown() {
	h.shuttingDown.Store(true)
}

// Handler serves GET /health.
func (h *Health) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if h.shuttingDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"shutting_down","service":"rule-engine"}`))
			return
		}
		w.Write([]byte(`{"status":"healthy","service":"rule-engine"}`))
	}
}

// NewRouter creates the HTTP handler for the engine's operational surface:
// the health endpoint and Prometheus metrics.
func NewRouter(health *Health) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Handler())
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
