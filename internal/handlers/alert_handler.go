package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"guardianai/internal/models"
	"guardianai/internal/repository"
)

// AlertHandler serves the safety alert feed
type AlertHandler struct {
	alerts *repository.AlertRepository
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts *repository.AlertRepository) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// CreateAlert handles POST /api/users/{userId}/alerts
func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type        models.AlertType     `json:"type"`
		Severity    models.AlertSeverity `json:"severity"`
		Description string               `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", err)
		return
	}
	if !req.Type.Valid() {
		respondWithError(w, http.StatusBadRequest, "unknown alert type", "", nil)
		return
	}
	if !req.Severity.Valid() {
		respondWithError(w, http.StatusBadRequest, "unknown alert severity", "", nil)
		return
	}

	alert := &models.SafetyAlert{
		ID:          uuid.New().String(),
		UserID:      r.PathValue("userId"),
		Type:        req.Type,
		Severity:    req.Severity,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := h.alerts.Create(alert); err != nil {
		respondServiceError(w, "Failed to create alert", err)
		return
	}

	respondJSON(w, http.StatusCreated, alert)
}

// ListAlerts handles GET /api/users/{userId}/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListForUser(r.PathValue("userId"))
	if err != nil {
		respondServiceError(w, "Failed to list alerts", err)
		return
	}
	if alerts == nil {
		alerts = []models.SafetyAlert{}
	}

	respondJSON(w, http.StatusOK, alerts)
}

// ResolveAlert handles POST /api/users/{userId}/alerts/{alertId}/resolve
func (h *AlertHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.alerts.Resolve(r.PathValue("userId"), r.PathValue("alertId")); err != nil {
		respondServiceError(w, "Failed to resolve alert", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
