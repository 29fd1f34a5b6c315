package storage

import (
	"errors"

	"cybershield/internal/models"

	"gorm.io/gorm"
)

// ErrUserNotFound is returned when a user id does not reference an existing user
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles database operations for User
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// MigrateTable ensures the User table exists
func (r *UserRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.User{})
}

// Create inserts a new User
func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID returns the user with the given id
func (r *UserRepository) GetByID(userID int64) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, userID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, result.Error
}

// SetRedTag sets or clears the red tag flag (admin override path)
func (r *UserRepository) SetRedTag(userID int64, hasRedTag bool) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Update("has_red_tag", hasRedTag)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetBlocked sets or clears the blocked flag (admin override path)
func (r *UserRepository) SetBlocked(userID int64, isBlocked bool) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Update("is_blocked", isBlocked)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
