package models

import "time"

// AlertType classifies what kind of risk a safety alert describes
type AlertType string

const (
	AlertScam                 AlertType = "scam"
	AlertInappropriateContent AlertType = "inappropriate_content"
	AlertCyberbullying        AlertType = "cyberbullying"
	AlertPrivacyRisk          AlertType = "privacy_risk"
)

// Valid reports whether the alert type is supported
func (t AlertType) Valid() bool {
	switch t {
	case AlertScam, AlertInappropriateContent, AlertCyberbullying, AlertPrivacyRisk:
		return true
	}
	return false
}

// AlertSeverity ranks how serious a safety alert is
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Valid reports whether the severity is supported
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// SafetyAlert records a detected risk for a user. Immutable once created
// except for the Resolved flag.
type SafetyAlert struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	Type           AlertType     `json:"type"`
	Severity       AlertSeverity `json:"severity"`
	Description    string        `json:"description"`
	CreatedAt      time.Time     `json:"createdAt"`
	Resolved       bool          `json:"resolved"`
	ParentNotified bool          `json:"parentNotified"`
}
