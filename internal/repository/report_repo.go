package repository

import (
	"encoding/json"
	"fmt"

	"guardianai/internal/kvstore"
	"guardianai/internal/models"
)

const reportKeyPrefix = "report:"

// ReportRepository stores append-only daily activity reports keyed by
// subject user and date
type ReportRepository struct {
	store kvstore.Store
}

// NewReportRepository creates a new report repository
func NewReportRepository(store kvstore.Store) *ReportRepository {
	return &ReportRepository{store: store}
}

func reportKey(userID, date string) string {
	return reportKeyPrefix + userID + ":" + date
}

// Append persists a report for a user and date
func (r *ReportRepository) Append(report *models.ActivityReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report %s: %w", report.ID, err)
	}
	if err := r.store.Set(reportKey(report.UserID, report.Date), data); err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	return nil
}

// ListForUser returns all reports for a user in date order
func (r *ReportRepository) ListForUser(userID string) ([]models.ActivityReport, error) {
	keys, err := r.store.Keys(reportKeyPrefix + userID + ":")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate reports: %w", err)
	}

	var reports []models.ActivityReport
	for _, key := range keys {
		data, found, err := r.store.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		if !found {
			continue
		}
		var report models.ActivityReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// ForUsers returns all reports across a set of users
func (r *ReportRepository) ForUsers(userIDs []string) ([]models.ActivityReport, error) {
	var reports []models.ActivityReport
	for _, userID := range userIDs {
		userReports, err := r.ListForUser(userID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, userReports...)
	}
	return reports, nil
}
