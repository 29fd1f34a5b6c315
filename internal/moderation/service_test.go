package moderation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cybershield/internal/evidence"
	"cybershield/internal/models"
	"cybershield/internal/moderation"
	"cybershield/internal/storage"
)

type recordingAlerter struct {
	calls chan string
}

func (a *recordingAlerter) NotifyIncident(userID int64, severity, analysis string, warningCount int) {
	a.calls <- severity
}

func newTestService(t *testing.T) (*moderation.Service, *serviceFixtures) {
	t.Helper()

	db := newTestDB(t)
	store, err := evidence.NewStore(t.TempDir())
	require.NoError(t, err)

	messages := storage.NewMessageRepository(db)
	escalator := moderation.NewEscalator(db, testModerationConfig())
	bot := moderation.NewCyberBOT(messages, testModerationConfig())
	alerter := &recordingAlerter{calls: make(chan string, 8)}

	service := moderation.NewService(escalator, bot, store, alerter)
	return service, &serviceFixtures{db: db, store: store, messages: messages, alerter: alerter}
}

type serviceFixtures struct {
	db       *gorm.DB
	store    *evidence.Store
	messages *storage.MessageRepository
	alerter  *recordingAlerter
}

func TestHandleFlaggedVerdictRedTagTransition(t *testing.T) {
	t.Parallel()

	service, fx := newTestService(t)
	user := createUser(t, fx.db, "dave", 2)

	outcome, err := service.HandleFlaggedVerdict(context.Background(), user.ID, nil, flaggedVerdict(), "Message to user 9")
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.WarningCount)
	assert.True(t, outcome.HasRedTag)
	assert.False(t, outcome.IsBlocked)
	assert.NotZero(t, outcome.IncidentID)
	assert.NotZero(t, outcome.WarningMessageID)

	// exactly one incident and one system warning message
	var incidents int64
	require.NoError(t, fx.db.Model(&models.Incident{}).Where("user_id = ?", user.ID).Count(&incidents).Error)
	assert.EqualValues(t, 1, incidents)

	conversation, err := fx.messages.GetConversation(user.ID, models.SystemSenderID)
	require.NoError(t, err)
	require.Len(t, conversation, 1)
	assert.Contains(t, conversation[0].Content, "Your account has been RED TAGGED")

	// evidence mirror got one entry
	report, err := fx.store.GenerateReport(&user.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.TotalIncidents)
}

func TestHandleFlaggedVerdictBlockTransition(t *testing.T) {
	t.Parallel()

	service, fx := newTestService(t)
	user := createUser(t, fx.db, "erin", 4)

	outcome, err := service.HandleFlaggedVerdict(context.Background(), user.ID, nil, flaggedVerdict(), "")
	require.NoError(t, err)

	assert.Equal(t, 5, outcome.WarningCount)
	assert.True(t, outcome.IsBlocked)
	assert.True(t, outcome.HasRedTag)

	// the warning text still uses the red-tag clause at the block threshold
	conversation, err := fx.messages.GetConversation(user.ID, models.SystemSenderID)
	require.NoError(t, err)
	require.Len(t, conversation, 1)
	assert.Contains(t, conversation[0].Content, "Your account has been RED TAGGED")
}

func TestHandleFlaggedVerdictUserNotFound(t *testing.T) {
	t.Parallel()

	service, fx := newTestService(t)

	outcome, err := service.HandleFlaggedVerdict(context.Background(), 12345, nil, flaggedVerdict(), "")
	require.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, outcome)

	// no incident, no warning message, no evidence
	var incidents int64
	require.NoError(t, fx.db.Model(&models.Incident{}).Count(&incidents).Error)
	assert.Zero(t, incidents)

	var messageCount int64
	require.NoError(t, fx.db.Model(&models.Message{}).Count(&messageCount).Error)
	assert.Zero(t, messageCount)

	report, err := fx.store.GenerateReport(nil, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Summary.TotalIncidents)
}

func TestHandleFlaggedVerdictNotifiesAlerter(t *testing.T) {
	t.Parallel()

	service, fx := newTestService(t)
	user := createUser(t, fx.db, "frank", 0)

	verdict := flaggedVerdict()
	verdict.Severity = models.SeverityCritical

	_, err := service.HandleFlaggedVerdict(context.Background(), user.ID, nil, verdict, "")
	require.NoError(t, err)

	severity := <-fx.alerter.calls
	assert.Equal(t, models.SeverityCritical, severity)
}
