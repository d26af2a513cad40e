package repository

import (
	"encoding/json"
	"fmt"

	"guardianai/internal/kvstore"
	"guardianai/internal/models"
)

const alertKeyPrefix = "alert:"

// AlertRepository stores safety alerts keyed by subject user
type AlertRepository struct {
	store kvstore.Store
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(store kvstore.Store) *AlertRepository {
	return &AlertRepository{store: store}
}

func alertKey(userID, alertID string) string {
	return alertKeyPrefix + userID + ":" + alertID
}

// Create persists a new alert
func (r *AlertRepository) Create(alert *models.SafetyAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to serialize alert %s: %w", alert.ID, err)
	}
	if err := r.store.Set(alertKey(alert.UserID, alert.ID), data); err != nil {
		return fmt.Errorf("failed to save alert %s: %w", alert.ID, err)
	}
	return nil
}

// ListForUser returns all alerts for a user in stable key order
func (r *AlertRepository) ListForUser(userID string) ([]models.SafetyAlert, error) {
	return r.loadPrefix(alertKeyPrefix + userID + ":")
}

// UnresolvedForUsers returns the unresolved alerts across a set of users
func (r *AlertRepository) UnresolvedForUsers(userIDs []string) ([]models.SafetyAlert, error) {
	var alerts []models.SafetyAlert
	for _, userID := range userIDs {
		userAlerts, err := r.ListForUser(userID)
		if err != nil {
			return nil, err
		}
		for _, alert := range userAlerts {
			if !alert.Resolved {
				alerts = append(alerts, alert)
			}
		}
	}
	return alerts, nil
}

// Resolve sets the resolved flag on an alert. Alerts are otherwise
// immutable once created.
func (r *AlertRepository) Resolve(userID, alertID string) error {
	key := alertKey(userID, alertID)
	data, found, err := r.store.Get(key)
	if err != nil {
		return fmt.Errorf("failed to load alert %s: %w", alertID, err)
	}
	if !found {
		return fmt.Errorf("alert %s not found", alertID)
	}

	var alert models.SafetyAlert
	if err := json.Unmarshal(data, &alert); err != nil {
		return fmt.Errorf("failed to decode alert %s: %w", alertID, err)
	}
	alert.Resolved = true

	updated, err := json.Marshal(&alert)
	if err != nil {
		return fmt.Errorf("failed to serialize alert %s: %w", alertID, err)
	}
	if err := r.store.Set(key, updated); err != nil {
		return fmt.Errorf("failed to save alert %s: %w", alertID, err)
	}
	return nil
}

func (r *AlertRepository) loadPrefix(prefix string) ([]models.SafetyAlert, error) {
	keys, err := r.store.Keys(prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate alerts: %w", err)
	}

	var alerts []models.SafetyAlert
	for _, key := range keys {
		data, found, err := r.store.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		if !found {
			continue
		}
		var alert models.SafetyAlert
		if err := json.Unmarshal(data, &alert); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
