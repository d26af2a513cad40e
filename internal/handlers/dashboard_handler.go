package handlers

import (
	"net/http"

	"guardianai/internal/service"
)

// DashboardHandler serves the aggregate family views
type DashboardHandler struct {
	directory *service.DirectoryService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(directory *service.DirectoryService) *DashboardHandler {
	return &DashboardHandler{directory: directory}
}

// Summary handles GET /api/families/{id}/summary
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")

	summary, err := h.directory.ActivitySummary(familyID)
	if err != nil {
		respondServiceError(w, "Failed to compute activity summary", err)
		return
	}

	score, err := h.directory.FamilySafetyScore(familyID)
	if err != nil {
		respondServiceError(w, "Failed to compute safety score", err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		*service.ActivitySummary
		SafetyScore int `json:"safetyScore"`
	}{summary, score})
}
