package models

import "time"

// ActivityReport is a daily append-only record of a user's activity
type ActivityReport struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Date           string    `json:"date"` // YYYY-MM-DD
	AIInteractions int       `json:"aiInteractions"`
	SafetyAlerts   int       `json:"safetyAlerts"`
	StudyMinutes   int       `json:"studyMinutes"`
	WellbeingScore int       `json:"wellbeingScore"` // 0-100
	Summary        string    `json:"summary"`
	CreatedAt      time.Time `json:"createdAt"`
}
