package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/grievance-portal/internal/transport"
)

const healthCheckTimeout = 2 * time.Second

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// Pinger is anything that can report reachability, such as a store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one named readiness check.
type Check struct {
	Name    string
	Target  Pinger
	Details map[string]any
}

type HealthHandler struct {
	*transport.BaseHandler
	checks  []Check
	started time.Time
}

func NewHealthHandler(base *transport.BaseHandler, checks ...Check) *HealthHandler {
	return &HealthHandler{BaseHandler: base, checks: checks, started: time.Now()}
}

// pingHandler → liveness only
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "OK",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// healthCheckHandler → runs every readiness check; any failure answers 503
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     HealthHealthy,
		Components: make(map[string]CheckEntry, len(h.checks)),
	}

	for _, c := range h.checks {
		entry := h.run(r.Context(), c)
		if entry.Status == HealthUnhealthy {
			resp.Status = HealthUnhealthy
			h.Logger.Warn("health check failed", "component", c.Name, "error", entry.Message)
		}
		resp.Components[c.Name] = entry
	}
	resp.CheckedAt = time.Now()

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	h.WriteJSON(w, statusCode, resp)
}

func (h *HealthHandler) run(ctx context.Context, c Check) CheckEntry {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := c.Target.Ping(ctx)

	entry := CheckEntry{
		Status:     HealthHealthy,
		Details:    c.Details,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}
