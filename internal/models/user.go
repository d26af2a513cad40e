package models

import "time"

// User represents an account in the system
type User struct {
	ID            string                 `json:"id"`
	Email         string                 `json:"email"`
	PasswordHash  string                 `json:"passwordHash,omitempty"`
	Name          string                 `json:"name"`
	Role          Role                   `json:"role"`
	OAuthProvider string                 `json:"oauthProvider,omitempty"`
	OAuthSubject  string                 `json:"oauthSubject,omitempty"`
	FamilyID      string                 `json:"familyId,omitempty"`
	Assistants    map[string]AIAssistant `json:"assistants,omitempty"`
	Preferences   map[string]string      `json:"preferences,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// AIAssistant describes a configured assistant persona for a user
type AIAssistant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Persona   string    `json:"persona,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session represents an authenticated session
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
