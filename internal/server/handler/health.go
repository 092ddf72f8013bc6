package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/crossarb/internal/ratelimit"
)

// LimitReporter describes the venue rate limiters.
type LimitReporter interface {
	Status() []ratelimit.Status
}

// Settings echoes the detection settings in /api/status.
type Settings struct {
	MatchThreshold          float64 `json:"match_threshold"`
	MinDifferencePercent    float64 `json:"min_difference_percent"`
	SuspiciousProfitPercent float64 `json:"suspicious_profit_percent"`
	RefreshInterval         string  `json:"refresh_interval"`
}

// HealthHandler serves the liveness and status endpoints.
type HealthHandler struct {
	svc      SnapshotService
	limits   LimitReporter
	settings Settings
	now      func() time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(svc SnapshotService, limits LimitReporter, settings Settings) *HealthHandler {
	return &HealthHandler{svc: svc, limits: limits, settings: settings, now: time.Now}
}

// Health reports liveness and limiter headroom. It answers 200 even before the
// first snapshot exists.
// GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   h.now().UTC().Format(time.RFC3339),
		"data_state":  h.svc.Status().State,
		"rate_limits": h.limits.Status(),
	})
}

// Status reports the orchestrator state, limiter headroom and settings.
// GET /api/status
func (h *HealthHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"refresh":     h.svc.Status(),
		"rate_limits": h.limits.Status(),
		"settings":    h.settings,
	})
}
