package storage

import (
	"errors"
	"time"

	"cybershield/internal/models"

	"gorm.io/gorm"
)

// ErrReportNotFound is returned when a report id does not exist
var ErrReportNotFound = errors.New("report not found")

// ReportRepository handles database operations for Report
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// MigrateTable ensures the Report table exists
func (r *ReportRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.Report{})
}

// Create inserts a new Report
func (r *ReportRepository) Create(report *models.Report) error {
	return r.db.Create(report).Error
}

// ListRecent returns up to limit reports, newest first, with an optional
// status filter
func (r *ReportRepository) ListRecent(status string, limit int) ([]*models.Report, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.Model(&models.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var reports []*models.Report
	result := query.Order("created_at DESC").Limit(limit).Find(&reports)
	return reports, result.Error
}

// UpdateStatus moves a report through the review lifecycle, stamping review
// and resolve times and recording optional admin notes
func (r *ReportRepository) UpdateStatus(reportID int64, status, adminNotes string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      status,
		"reviewed_at": &now,
	}
	if adminNotes != "" {
		updates["admin_notes"] = adminNotes
	}
	if status == models.ReportStatusResolved {
		updates["resolved_at"] = &now
	}

	result := r.db.Model(&models.Report{}).Where("id = ?", reportID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}
