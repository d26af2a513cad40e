package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"guardianai/internal/kvstore"
	"guardianai/internal/models"
)

const (
	userKeyPrefix      = "user:"
	userEmailKeyPrefix = "user-email:"
	userOAuthKeyPrefix = "user-oauth:"
	sessionKeyPrefix   = "session:"
)

// UserRepository handles storage operations for user accounts and
// their sessions
type UserRepository struct {
	store kvstore.Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(store kvstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

func userKey(userID string) string {
	return userKeyPrefix + userID
}

func userEmailKey(email string) string {
	return userEmailKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func userOAuthKey(provider, subject string) string {
	return userOAuthKeyPrefix + provider + ":" + subject
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// SaveUser writes a user record and its email lookup entry
func (r *UserRepository) SaveUser(user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize user %s: %w", user.ID, err)
	}
	if err := r.store.Set(userKey(user.ID), data); err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	if err := r.store.Set(userEmailKey(user.Email), []byte(user.ID)); err != nil {
		return fmt.Errorf("failed to index user email: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when absent.
func (r *UserRepository) GetUserByID(userID string) (*models.User, error) {
	data, found, err := r.store.Get(userKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if !found {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", userID, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
// Returns (nil, nil) when absent.
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	id, found, err := r.store.Get(userEmailKey(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if !found {
		return nil, nil
	}
	return r.GetUserByID(string(id))
}

// GetUserByOAuth retrieves a user linked to the given OAuth identity.
// Returns (nil, nil) when absent.
func (r *UserRepository) GetUserByOAuth(provider, subject string) (*models.User, error) {
	id, found, err := r.store.Get(userOAuthKey(provider, subject))
	if err != nil {
		return nil, fmt.Errorf("failed to look up oauth identity: %w", err)
	}
	if !found {
		return nil, nil
	}
	return r.GetUserByID(string(id))
}

// LinkOAuthProvider records an OAuth identity for a user
func (r *UserRepository) LinkOAuthProvider(userID, provider, subject string) error {
	user, err := r.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}

	user.OAuthProvider = provider
	user.OAuthSubject = subject
	user.UpdatedAt = time.Now()
	if err := r.SaveUser(user); err != nil {
		return err
	}
	if err := r.store.Set(userOAuthKey(provider, subject), []byte(userID)); err != nil {
		return fmt.Errorf("failed to index oauth identity: %w", err)
	}
	return nil
}

// SetUserFamily links a user account to a family after an invitation
// is accepted
func (r *UserRepository) SetUserFamily(userID, familyID string) error {
	user, err := r.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}

	user.FamilyID = familyID
	user.UpdatedAt = time.Now()
	return r.SaveUser(user)
}

// CreateSession stores a new session
func (r *UserRepository) CreateSession(sessionID, userID string, expiresAt time.Time) (*models.Session, error) {
	session := &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := r.store.Set(sessionKey(sessionID), data); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID. Returns (nil, nil) when absent.
func (r *UserRepository) GetSession(sessionID string) (*models.Session, error) {
	data, found, err := r.store.Get(sessionKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes a session
func (r *UserRepository) DeleteSession(sessionID string) error {
	return r.store.Delete(sessionKey(sessionID))
}

// DeleteExpiredSessions removes all sessions past their expiry
func (r *UserRepository) DeleteExpiredSessions() error {
	keys, err := r.store.Keys(sessionKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to enumerate sessions: %w", err)
	}

	now := time.Now()
	for _, key := range keys {
		data, found, err := r.store.Get(key)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", key, err)
		}
		if !found {
			continue
		}
		var session models.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return fmt.Errorf("failed to decode %s: %w", key, err)
		}
		if now.After(session.ExpiresAt) {
			if err := r.store.Delete(key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
		}
	}
	return nil
}
