package storage

import (
	"cybershield/internal/models"

	"gorm.io/gorm"
)

// MessageRepository handles database operations for Message
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// MigrateTable ensures the Message table exists
func (r *MessageRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.Message{})
}

// Create inserts a new Message
func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// GetConversation returns all messages between two users, oldest first.
// CyberBOT warnings appear here like any other message when peerID is
// the system sender id.
func (r *MessageRepository) GetConversation(userID, peerID int64) ([]*models.Message, error) {
	var messages []*models.Message
	result := r.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID).
		Order("created_at ASC").
		Find(&messages)
	return messages, result.Error
}
