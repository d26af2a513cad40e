package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"guardianai/internal/kvstore"
	"guardianai/internal/service"
	"guardianai/internal/validation"
)

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"family not found", service.ErrFamilyNotFound, http.StatusNotFound},
		{"member not found", service.ErrMemberNotFound, http.StatusNotFound},
		{"session not found", service.ErrSessionNotFound, http.StatusNotFound},
		{"duplicate email", service.ErrDuplicateEmail, http.StatusConflict},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"owner protected", service.ErrOwnerProtected, http.StatusForbidden},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"session expired", service.ErrSessionExpired, http.StatusUnauthorized},
		{"validation error", validation.ValidationError{Field: "email", Message: "required"}, http.StatusBadRequest},
		{"storage unavailable", kvstore.ErrUnavailable, http.StatusServiceUnavailable},
		{"unknown error", fmt.Errorf("something broke"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serviceErrorStatus(tt.err); got != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestServiceErrorStatusWrapped(t *testing.T) {
	// Wrapped sentinels must still map correctly
	wrapped := fmt.Errorf("failed to load family: %w", service.ErrFamilyNotFound)
	if got := serviceErrorStatus(wrapped); got != http.StatusNotFound {
		t.Errorf("Expected 404 for wrapped sentinel, got %d", got)
	}

	unavailable := fmt.Errorf("%w: get family:1: disk error", kvstore.ErrUnavailable)
	if got := serviceErrorStatus(unavailable); got != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 for wrapped unavailable, got %d", got)
	}
}
