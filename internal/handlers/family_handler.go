package handlers

import (
	"encoding/json"
	"net/http"

	"guardianai/internal/models"
	"guardianai/internal/service"
)

// FamilyHandler serves family and member management endpoints
type FamilyHandler struct {
	directory *service.DirectoryService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(directory *service.DirectoryService) *FamilyHandler {
	return &FamilyHandler{directory: directory}
}

// CreateFamily handles POST /api/families
func (h *FamilyHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", err)
		return
	}

	family, err := h.directory.CreateFamily(user.ID, user.Name, user.Email, req.Name)
	if err != nil {
		respondServiceError(w, "Failed to create family", err)
		return
	}

	respondJSON(w, http.StatusCreated, family)
}

// ListFamilies handles GET /api/families
func (h *FamilyHandler) ListFamilies(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	families, err := h.directory.GetUserFamilies(user.ID)
	if err != nil {
		respondServiceError(w, "Failed to list families", err)
		return
	}
	if families == nil {
		families = []models.Family{}
	}

	respondJSON(w, http.StatusOK, families)
}

// GetFamily handles GET /api/families/{id}
func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	family, err := h.directory.GetFamily(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, "Failed to get family", err)
		return
	}

	respondJSON(w, http.StatusOK, family)
}

// AddMember handles POST /api/families/{id}/members
func (h *FamilyHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Name  string      `json:"name"`
		Email string      `json:"email"`
		Role  models.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", err)
		return
	}

	member, err := h.directory.AddMember(r.PathValue("id"), service.MemberDraft{
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: user.ID,
	})
	if err != nil {
		respondServiceError(w, "Failed to add member", err)
		return
	}

	respondJSON(w, http.StatusCreated, member)
}

// UpdateMember handles PUT /api/families/{id}/members/{memberId}
func (h *FamilyHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role              *models.Role         `json:"role"`
		Status            *models.MemberStatus `json:"status"`
		CanManageFamily   *bool                `json:"canManageFamily"`
		CanViewReports    *bool                `json:"canViewReports"`
		CanModifySettings *bool                `json:"canModifySettings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", err)
		return
	}

	err := h.directory.UpdateMember(r.PathValue("id"), r.PathValue("memberId"), service.MemberPatch{
		Role:              req.Role,
		Status:            req.Status,
		CanManageFamily:   req.CanManageFamily,
		CanViewReports:    req.CanViewReports,
		CanModifySettings: req.CanModifySettings,
	})
	if err != nil {
		respondServiceError(w, "Failed to update member", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RemoveMember handles DELETE /api/families/{id}/members/{memberId}
func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.directory.RemoveMember(r.PathValue("id"), r.PathValue("memberId"))
	if err != nil {
		respondServiceError(w, "Failed to remove member", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AcceptInvitation handles POST /api/invitations/accept
func (h *FamilyHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", err)
		return
	}
	if req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "token is required", "", nil)
		return
	}

	if err := h.directory.AcceptInvitationByToken(req.Token, user.ID); err != nil {
		respondServiceError(w, "Failed to accept invitation", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
