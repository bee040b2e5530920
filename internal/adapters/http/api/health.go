package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/lcarchive/pkg/metrics"
)

// HealthHandler handles liveness and metrics requests.
type HealthHandler struct {
	statsProvider StatsProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(statsProvider StatsProvider) *HealthHandler {
	return &HealthHandler{statsProvider: statsProvider}
}

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth handles GET /healthz. It reports 503 until the catalogs
// are loaded.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.statsProvider != nil {
		if started, _ := h.statsProvider.Stats()["started"].(bool); !started {
			writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "starting"})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
}

// HandleMetrics handles GET /metrics.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
