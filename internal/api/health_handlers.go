package api

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/BioInfo/chronoscope/internal/health"
)

// readyTimeout bounds all readiness checks together.
const readyTimeout = 5 * time.Second

// HealthHandlers provides liveness and readiness endpoints.
type HealthHandlers struct {
	checks map[string]health.Checker
	now    func() time.Time
}

// NewHealthHandlers creates health handlers running the named readiness
// checks. Nil checkers are skipped.
func NewHealthHandlers(checks map[string]health.Checker) *HealthHandlers {
	h := &HealthHandlers{
		checks: make(map[string]health.Checker, len(checks)),
		now:    time.Now,
	}
	for name, c := range checks {
		if c != nil {
			h.checks[name] = c
		}
	}
	return h
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness probe). It returns 503 when any
// configured dependency fails its check.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := map[string]string{"metrics": "ok"}
	healthy := true
	for _, name := range names {
		if err := h.checks[name].HealthCheck(ctx); err != nil {
			checks[name] = "error"
			healthy = false
			slog.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
