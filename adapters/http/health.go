package http

import (
	"encoding/json"
	"net/http"

	"github.com/taskgate/taskgate/adapters/metrics"
	"github.com/taskgate/taskgate/core/health"
)

// HealthHandler serves the liveness and readiness endpoints from the
// registered probe set.
type HealthHandler struct {
	probes  *health.Set
	metrics *metrics.Collector
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(probes *health.Set) *HealthHandler {
	return &HealthHandler{probes: probes}
}

// NewHealthHandlerWithMetrics creates a health handler that counts probe
// failures.
func NewHealthHandlerWithMetrics(probes *health.Set, m *metrics.Collector) *HealthHandler {
	return &HealthHandler{probes: probes, metrics: m}
}

type probeStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status string        `json:"status"`
	Probes []probeStatus `json:"probes,omitempty"`
}

// Liveness reports that the process is up. It never consults probes: a
// process that can answer is alive, even when a dependency is down.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness runs every ready-tagged probe and reports 200 when all pass,
// 503 with per-probe detail otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	results := h.probes.CheckReady(r.Context())

	resp := readinessResponse{Status: "ok", Probes: make([]probeStatus, 0, len(results))}
	for _, res := range results {
		status := probeStatus{Name: res.Name, OK: res.Err == nil}
		if res.Err != nil {
			status.Error = res.Err.Error()
			resp.Status = "unhealthy"
			if h.metrics != nil {
				h.metrics.ProbeFailures.WithLabelValues(res.Name).Inc()
			}
		}
		resp.Probes = append(resp.Probes, status)
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
