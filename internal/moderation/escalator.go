package moderation

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cybershield/internal/classifier"
	"cybershield/internal/config"
	"cybershield/internal/models"
	"cybershield/internal/storage"
)

// EscalationResult describes the user's moderation state after one flagged
// verdict was applied. NewlyRedTagged/NewlyBlocked are true only on the call
// that crossed the respective threshold.
type EscalationResult struct {
	WarningCount   int
	HasRedTag      bool
	IsBlocked      bool
	NewlyRedTagged bool
	NewlyBlocked   bool
	IncidentID     int64
}

// Escalator owns the per-user warning counter and the red-tag/block flags.
// All mutation goes through ApplyVerdict; nothing else in the system writes
// these fields outside the admin override path.
type Escalator struct {
	db              *gorm.DB
	redTagThreshold int
	blockThreshold  int
	locks           *userLocks
}

// NewEscalator creates an Escalator with thresholds from configuration
func NewEscalator(db *gorm.DB, cfg *config.ModerationConfig) *Escalator {
	return &Escalator{
		db:              db,
		redTagThreshold: cfg.RedTagThreshold,
		blockThreshold:  cfg.BlockThreshold,
		locks:           newUserLocks(),
	}
}

// ApplyVerdict applies one flagged verdict to the user's moderation state.
// The counter increment, threshold flags and incident row are committed in
// a single transaction under a per-user lock, so N concurrent flagged events
// for the same user always yield exactly N increments and N incidents with
// deterministic threshold crossings. Returns storage.ErrUserNotFound with
// nothing committed when the user does not exist.
func (e *Escalator) ApplyVerdict(ctx context.Context, userID int64, messageID *int64, verdict *classifier.TextVerdict, contextInfo string) (*EscalationResult, error) {
	e.locks.acquire(userID)
	defer e.locks.release(userID)

	var result *EscalationResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		// Row lock backs up the in-process lock when multiple instances
		// share the database. SQLite serializes writers on its own and
		// rejects the clause.
		if tx.Dialector.Name() == "mysql" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var user models.User
		if err := query.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrUserNotFound
			}
			return err
		}

		user.WarningCount++

		newlyRedTagged := false
		if user.WarningCount >= e.redTagThreshold && !user.HasRedTag {
			user.HasRedTag = true
			newlyRedTagged = true
		}
		newlyBlocked := false
		if user.WarningCount >= e.blockThreshold && !user.IsBlocked {
			user.IsBlocked = true
			newlyBlocked = true
		}

		updates := map[string]interface{}{
			"warning_count": user.WarningCount,
			"has_red_tag":   user.HasRedTag,
			"is_blocked":    user.IsBlocked,
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return err
		}

		incident := &models.Incident{
			UserID:          userID,
			MessageID:       messageID,
			Severity:        verdict.Severity,
			Status:          models.IncidentStatusPending,
			DetectedContent: verdict.Content,
			ContentFiltered: verdict.FilteredText,
			Context:         contextInfo,
			AIAnalysis:      verdict.Analysis,
			DetectionModel:  verdict.Model,
			ConfidenceScore: strconv.FormatFloat(verdict.Confidence, 'f', 2, 64),
		}
		if err := tx.Create(incident).Error; err != nil {
			return err
		}

		result = &EscalationResult{
			WarningCount:   user.WarningCount,
			HasRedTag:      user.HasRedTag,
			IsBlocked:      user.IsBlocked,
			NewlyRedTagged: newlyRedTagged,
			NewlyBlocked:   newlyBlocked,
			IncidentID:     incident.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
