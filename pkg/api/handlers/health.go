// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/continuum/continuum/pkg/api/response"
	"github.com/continuum/continuum/pkg/memory"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	system  *memory.System[json.RawMessage]
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(sys *memory.System[json.RawMessage], version string) *HealthHandler {
	return &HealthHandler{
		system:  sys,
		version: version,
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe).
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]bool{
		"ready": h.system != nil,
	})
}

// Status handles the /status endpoint (detailed status).
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"id":          h.system.ID(),
		"version":     h.version,
		"dimension":   h.system.Dimension(),
		"tiers":       h.system.TierNames(),
		"global_step": h.system.GlobalStep(),
	})
}
