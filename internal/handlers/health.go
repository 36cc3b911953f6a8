package handlers

import (
	"net/http"
	"time"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/services"
)

var startTime = time.Now()

// HealthHandlers exposes liveness and readiness endpoints.
type HealthHandlers struct {
	health services.HealthService
}

// NewHealthHandlers constructs health endpoints. The health service is
// optional; without it readiness degrades to a plain liveness answer.
func NewHealthHandlers(health services.HealthService) *HealthHandlers {
	return &HealthHandlers{health: health}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    domain.HealthStatusOK,
		"uptime":    time.Since(startTime).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz probes dependencies and reports readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.health == nil {
		h.Healthz(w, r)
		return
	}

	report, err := h.health.Check(r.Context())
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": domain.HealthStatusError,
			"error":  err.Error(),
		})
		return
	}

	status := http.StatusOK
	if report.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]any, len(report.Checks))
	for name, check := range report.Checks {
		entry := map[string]any{
			"status":    check.Status,
			"latencyMs": check.Latency.Milliseconds(),
		}
		if check.Detail != "" {
			entry["detail"] = check.Detail
		}
		if check.Error != "" {
			entry["error"] = check.Error
		}
		checks[name] = entry
	}

	writeJSONResponse(w, status, map[string]any{
		"status":      report.Status,
		"environment": report.Environment,
		"version":     report.Version,
		"uptime":      report.Uptime.String(),
		"checks":      checks,
	})
}
