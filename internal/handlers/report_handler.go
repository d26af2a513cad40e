package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"guardianai/internal/models"
	"guardianai/internal/repository"
)

// ReportHandler serves the activity report feed
type ReportHandler struct {
	reports *repository.ReportRepository
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *repository.ReportRepository) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// AppendReport handles POST /api/users/{userId}/reports
func (h *ReportHandler) AppendReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date           string `json:"date"`
		AIInteractions int    `json:"aiInteractions"`
		SafetyAlerts   int    `json:"safetyAlerts"`
		StudyMinutes   int    `json:"studyMinutes"`
		WellbeingScore int    `json:"wellbeingScore"`
		Summary        string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", err)
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "", err)
		return
	}
	if req.WellbeingScore < 0 || req.WellbeingScore > 100 {
		respondWithError(w, http.StatusBadRequest, "wellbeing score must be 0-100", "", nil)
		return
	}

	report := &models.ActivityReport{
		ID:             uuid.New().String(),
		UserID:         r.PathValue("userId"),
		Date:           req.Date,
		AIInteractions: req.AIInteractions,
		SafetyAlerts:   req.SafetyAlerts,
		StudyMinutes:   req.StudyMinutes,
		WellbeingScore: req.WellbeingScore,
		Summary:        req.Summary,
		CreatedAt:      time.Now(),
	}
	if err := h.reports.Append(report); err != nil {
		respondServiceError(w, "Failed to append report", err)
		return
	}

	respondJSON(w, http.StatusCreated, report)
}

// ListReports handles GET /api/users/{userId}/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.ListForUser(r.PathValue("userId"))
	if err != nil {
		respondServiceError(w, "Failed to list reports", err)
		return
	}
	if reports == nil {
		reports = []models.ActivityReport{}
	}

	respondJSON(w, http.StatusOK, reports)
}
