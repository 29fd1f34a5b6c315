package models

import "time"

// user report categories
const (
	ReportTypeHarassment           = "harassment"
	ReportTypeCyberbullying        = "cyberbullying"
	ReportTypeInappropriateContent = "inappropriate_content"
	ReportTypeSpam                 = "spam"
	ReportTypeOther                = "other"
)

// report review lifecycle states
const (
	ReportStatusPending     = "pending"
	ReportStatusUnderReview = "under_review"
	ReportStatusResolved    = "resolved"
	ReportStatusDismissed   = "dismissed"
)

var reportTypes = map[string]bool{
	ReportTypeHarassment:           true,
	ReportTypeCyberbullying:        true,
	ReportTypeInappropriateContent: true,
	ReportTypeSpam:                 true,
	ReportTypeOther:                true,
}

var reportStatuses = map[string]bool{
	ReportStatusPending:     true,
	ReportStatusUnderReview: true,
	ReportStatusResolved:    true,
	ReportStatusDismissed:   true,
}

// IsValidReportType reports whether t is a known report category
func IsValidReportType(t string) bool {
	return reportTypes[t]
}

// IsValidReportStatus reports whether s is a known report lifecycle state
func IsValidReportStatus(s string) bool {
	return reportStatuses[s]
}

// Report records one user-filed complaint about another user or message.
// Unlike incidents, which only the escalation path inserts, reports enter
// through the public API and are worked off by admins.
type Report struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	ReporterID     int64  `gorm:"index;not null"`
	ReportedUserID *int64 `gorm:"index"`
	MessageID      *int64 `gorm:"index"`
	ReportType     string `gorm:"size:32;not null"`
	Status         string `gorm:"size:16;default:'pending'"`
	Description    string `gorm:"type:text;not null"`
	IsUrgent       bool   `gorm:"default:false"`
	AdminNotes     string `gorm:"type:text"`
	CreatedAt      time.Time
	ReviewedAt     *time.Time
	ResolvedAt     *time.Time
}
