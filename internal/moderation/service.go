package moderation

import (
	"context"

	"cybershield/internal/classifier"
	"cybershield/internal/crash"
	"cybershield/internal/evidence"
	"cybershield/internal/logger"
)

// Alerter receives notifications about severe incidents. Implementations
// must be best-effort; failures are logged and never propagated.
type Alerter interface {
	NotifyIncident(userID int64, severity, analysis string, warningCount int)
}

// ModerationOutcome is returned to the message-send caller after one
// flagged verdict has been fully handled
type ModerationOutcome struct {
	WarningCount     int
	HasRedTag        bool
	IsBlocked        bool
	IncidentID       int64
	WarningMessageID int64
}

// Service orchestrates the escalation state machine, the evidence mirror
// and CyberBOT warning delivery for flagged verdicts
type Service struct {
	escalator *Escalator
	bot       *CyberBOT
	evidence  *evidence.Store
	alerter   Alerter
}

// NewService wires the moderation components together. alerter may be nil.
func NewService(escalator *Escalator, bot *CyberBOT, store *evidence.Store, alerter Alerter) *Service {
	return &Service{
		escalator: escalator,
		bot:       bot,
		evidence:  store,
		alerter:   alerter,
	}
}

// HandleFlaggedVerdict is the single entry point for one flagged event.
// The counter/flags/incident transaction is required and aborts the call on
// failure; evidence logging, warning delivery and admin alerting run after
// commit as best-effort steps with independent failure handling.
func (s *Service) HandleFlaggedVerdict(ctx context.Context, userID int64, messageID *int64, verdict *classifier.TextVerdict, contextInfo string) (*ModerationOutcome, error) {
	result, err := s.escalator.ApplyVerdict(ctx, userID, messageID, verdict, contextInfo)
	if err != nil {
		return nil, err
	}

	outcome := &ModerationOutcome{
		WarningCount: result.WarningCount,
		HasRedTag:    result.HasRedTag,
		IsBlocked:    result.IsBlocked,
		IncidentID:   result.IncidentID,
	}

	if _, err := s.evidence.LogIncident(&evidence.Entry{
		UserID:          userID,
		MessageID:       messageID,
		Severity:        verdict.Severity,
		DetectedContent: verdict.Content,
		AIAnalysis:      verdict.Analysis,
		Context:         contextInfo,
	}); err != nil {
		logger.Warningf("Error writing evidence entry for user %d: %v", userID, err)
	}

	text := s.bot.ComposeWarning(verdict.ViolationType, verdict.Severity, result.WarningCount, verdict.Categories)
	warningMessageID, err := s.bot.DeliverWarning(userID, text)
	if err != nil {
		logger.Warningf("Error delivering warning to user %d: %v", userID, err)
	} else {
		outcome.WarningMessageID = warningMessageID
	}

	if s.alerter != nil {
		warningCount := result.WarningCount
		severity := verdict.Severity
		analysis := verdict.Analysis
		crash.SafeGoroutine("incident-alert", func() {
			s.alerter.NotifyIncident(userID, severity, analysis, warningCount)
		})
	}

	return outcome, nil
}
