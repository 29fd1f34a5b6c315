package models

import "time"

// message types
const (
	MessageTypeText          = "text"
	MessageTypeImage         = "image"
	MessageTypeSystemWarning = "system_warning"
)

// Message represents one message in a conversation between two users.
// CyberBOT warnings are regular rows with SenderID = SystemSenderID so they
// show up in the normal conversation retrieval path.
type Message struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	SenderID        int64  `gorm:"index;not null"`
	ReceiverID      int64  `gorm:"index;not null"`
	Content         string `gorm:"type:text;not null"`
	ContentFiltered string `gorm:"type:text"`
	MessageType     string `gorm:"size:32;default:'text'"`
	FileURL         string `gorm:"size:255"`
	IsFlagged       bool   `gorm:"default:false"`
	SeverityScore   string `gorm:"size:16"`
	CreatedAt       time.Time
}
