package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"chessconnect/api/internal/utils"
)

const serviceName = "chessconnect-api"

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"` // "ready" | "not_ready"
	Service string                    `json:"service"`
	Checks  map[string]ReadinessCheck `json:"checks"`
}

// Probe reports whether a dependency can serve requests.
type Probe func(ctx context.Context) error

type HealthHandler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

func (h *HealthHandler) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func (h *HealthHandler) ReadyzHandler(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	names := make([]string, 0, len(h.Probes))
	for name := range h.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]ReadinessCheck, len(names))
	ready := true
	for _, name := range names {
		if err := h.Probes[name](ctx); err != nil {
			checks[name] = ReadinessCheck{Status: "failed", Message: err.Error()}
			ready = false
			continue
		}
		checks[name] = ReadinessCheck{Status: "ok"}
	}

	resp := ReadinessResponse{Service: serviceName, Checks: checks}
	if ready {
		resp.Status = "ready"
		utils.JSON(w, http.StatusOK, resp)
		return
	}
	resp.Status = "not_ready"
	utils.JSON(w, http.StatusServiceUnavailable, resp)
}
