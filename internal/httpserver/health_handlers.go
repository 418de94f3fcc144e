package httpserver

import (
	"net/http"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/httpx"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

type healthHandlers struct {
	checker *repositories.HealthChecker
	started time.Time
	now     func() time.Time
}

// Live reports that the process is serving.
func (h *healthHandlers) Live(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    h.now().Sub(h.started).Round(time.Second).String(),
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Ready runs the dependency checks. Degraded dependencies still answer 200.
func (h *healthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		httpx.WriteJSON(w, http.StatusOK, domain.HealthReport{Status: domain.HealthStatusOK, GeneratedAt: h.now().UTC()})
		return
	}
	report := h.checker.Collect(r.Context())
	status := http.StatusOK
	if report.Status == domain.HealthStatusError {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	httpx.WriteJSON(w, status, report)
}
