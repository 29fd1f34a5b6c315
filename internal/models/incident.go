package models

import "time"

// incident severity levels, ordered from least to most severe
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// incident review lifecycle states
const (
	IncidentStatusPending   = "pending"
	IncidentStatusReviewed  = "reviewed"
	IncidentStatusResolved  = "resolved"
	IncidentStatusEscalated = "escalated"
)

var severityRank = map[string]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// SeverityAtLeast reports whether severity is at or above the given minimum.
// Unknown severities compare as lowest.
func SeverityAtLeast(severity, minimum string) bool {
	return severityRank[severity] >= severityRank[minimum]
}

// IsValidSeverity reports whether s is one of the known severity levels
func IsValidSeverity(s string) bool {
	_, ok := severityRank[s]
	return ok
}

// Incident records one flagged verdict for admin review.
// Rows are inserted by the escalation path and only mutated afterwards by
// the admin review workflow.
type Incident struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	UserID          int64  `gorm:"index;not null"`
	MessageID       *int64 `gorm:"index"`
	Severity        string `gorm:"size:16;not null"`
	Status          string `gorm:"size:16;default:'pending'"`
	DetectedContent string `gorm:"type:text;not null"`
	ContentFiltered string `gorm:"type:text"`
	Context         string `gorm:"type:text"`
	AIAnalysis      string `gorm:"type:text"`
	DetectionModel  string `gorm:"size:64"`
	ConfidenceScore string `gorm:"size:16"`
	CreatedAt       time.Time
	ReviewedAt      *time.Time
	ResolvedAt      *time.Time
}
