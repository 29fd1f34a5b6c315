package storage

import (
	"errors"
	"time"

	"cybershield/internal/models"

	"gorm.io/gorm"
)

// ErrIncidentNotFound is returned when an incident id does not exist
var ErrIncidentNotFound = errors.New("incident not found")

// IncidentRepository handles database operations for Incident
type IncidentRepository struct {
	db *gorm.DB
}

// NewIncidentRepository creates a new IncidentRepository
func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// MigrateTable ensures the Incident table exists
func (r *IncidentRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.Incident{})
}

// Create inserts a new Incident
func (r *IncidentRepository) Create(incident *models.Incident) error {
	return r.db.Create(incident).Error
}

// ListRecent returns up to limit incidents, newest first, with optional
// status and severity filters
func (r *IncidentRepository) ListRecent(status, severity string, limit int) ([]*models.Incident, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.Model(&models.Incident{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if severity != "" {
		query = query.Where("severity = ?", severity)
	}

	var incidents []*models.Incident
	result := query.Order("created_at DESC").Limit(limit).Find(&incidents)
	return incidents, result.Error
}

// UpdateStatus moves an incident through the review lifecycle, stamping
// review and resolve times
func (r *IncidentRepository) UpdateStatus(incidentID int64, status string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      status,
		"reviewed_at": &now,
	}
	if status == models.IncidentStatusResolved {
		updates["resolved_at"] = &now
	}

	result := r.db.Model(&models.Incident{}).Where("id = ?", incidentID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIncidentNotFound
	}
	return nil
}

// CountByUser returns the number of incidents recorded for a user
func (r *IncidentRepository) CountByUser(userID int64) (int64, error) {
	var count int64
	result := r.db.Model(&models.Incident{}).Where("user_id = ?", userID).Count(&count)
	return count, result.Error
}
