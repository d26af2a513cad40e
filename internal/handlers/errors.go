package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"guardianai/internal/kvstore"
	"guardianai/internal/service"
	"guardianai/internal/validation"
)

// respondJSON writes v as a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

// errorResponse is the JSON body for error replies
type errorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// serviceErrorStatus maps service-layer errors to HTTP status codes
func serviceErrorStatus(err error) int {
	var validationErr validation.ValidationError
	switch {
	case errors.Is(err, service.ErrFamilyNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrOwnerProtected):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, kvstore.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError maps err to a status and writes the error body
func respondServiceError(w http.ResponseWriter, logMsg string, err error) {
	respondWithError(w, serviceErrorStatus(err), err.Error(), logMsg, err)
}
