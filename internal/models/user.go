package models

import "time"

// SystemSenderID is the reserved sender identity used by CyberBOT.
// It is excluded from the regular user id space: user rows start at 1
// and no real account may ever be created with this id.
const SystemSenderID int64 = 0

// SystemSenderName is the display name of the system identity.
const SystemSenderName = "CyberBOT"

// User stores account state relevant to moderation.
// WarningCount only grows through the escalation path; HasRedTag and
// IsBlocked are sticky once set and may only be cleared by an admin.
type User struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	Username         string `gorm:"size:64;uniqueIndex;not null"`
	SensitivityLevel string `gorm:"size:16;default:'medium'"`
	WarningCount     int    `gorm:"not null;default:0"`
	HasRedTag        bool   `gorm:"default:false"`
	IsBlocked        bool   `gorm:"default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
