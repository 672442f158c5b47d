package server

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 5 * time.Second

// Checker verifies one dependency is reachable.
type Checker func(ctx context.Context) error

// Health runs named dependency checks and reports per-check status. Any
// failing check degrades the overall status and the endpoint answers 503.
type Health struct {
	checkers map[string]Checker
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func NewHealth() *Health {
	return &Health{checkers: make(map[string]Checker)}
}

// AddChecker registers a dependency check under a stable name.
func (h *Health) AddChecker(name string, check Checker) {
	h.checkers[name] = check
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status: "healthy",
		Checks: map[string]string{"api": "ok"},
	}
	for name, check := range h.checkers {
		if err := check(ctx); err != nil {
			resp.Checks[name] = "error: " + err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
