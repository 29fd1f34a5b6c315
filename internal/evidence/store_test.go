package evidence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybershield/internal/evidence"
	"cybershield/internal/models"
)

func newTestStore(t *testing.T) *evidence.Store {
	t.Helper()

	store, err := evidence.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLogIncidentSameSecondNoCollision(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	stamp := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	// two entries for the same user in the same second must both survive
	first, err := store.LogIncident(&evidence.Entry{
		Timestamp: stamp, UserID: 1, Severity: models.SeverityHigh, DetectedContent: "first",
	})
	require.NoError(t, err)
	second, err := store.LogIncident(&evidence.Entry{
		Timestamp: stamp, UserID: 1, Severity: models.SeverityHigh, DetectedContent: "second",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	report, err := store.GenerateReport(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalIncidents)
}

func TestGenerateReportFilters(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	early := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	_, err := store.LogIncident(&evidence.Entry{
		Timestamp: early, UserID: 1, Severity: models.SeverityHigh, DetectedContent: "user one",
	})
	require.NoError(t, err)
	_, err = store.LogIncident(&evidence.Entry{
		Timestamp: late, UserID: 2, Severity: models.SeverityLow, DetectedContent: "user two",
	})
	require.NoError(t, err)

	t.Run("filter by user", func(t *testing.T) {
		t.Parallel()

		userID := int64(1)
		report, err := store.GenerateReport(&userID, nil, nil)
		require.NoError(t, err)
		require.Equal(t, 1, report.Summary.TotalIncidents)
		assert.EqualValues(t, 1, report.Incidents[0].UserID)
		assert.Equal(t, models.SeverityHigh, report.Incidents[0].Severity)
	})

	t.Run("date range excluding all entries", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
		report, err := store.GenerateReport(nil, &start, &end)
		require.NoError(t, err)
		assert.Zero(t, report.Summary.TotalIncidents)
		assert.Empty(t, report.Incidents)
	})

	t.Run("date bounds are inclusive", func(t *testing.T) {
		t.Parallel()

		report, err := store.GenerateReport(nil, &early, &late)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Summary.TotalIncidents)
	})

	t.Run("summary counts", func(t *testing.T) {
		t.Parallel()

		report, err := store.GenerateReport(nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Summary.TotalIncidents)
		assert.Equal(t, 1, report.Summary.BySeverity[models.SeverityHigh])
		assert.Equal(t, 1, report.Summary.BySeverity[models.SeverityLow])
		assert.Equal(t, 1, report.Summary.ByUser[1])
		assert.Equal(t, 1, report.Summary.ByUser[2])
		assert.NotEmpty(t, report.ReportID)
	})

	t.Run("entries sorted newest first", func(t *testing.T) {
		t.Parallel()

		report, err := store.GenerateReport(nil, nil, nil)
		require.NoError(t, err)
		require.Len(t, report.Incidents, 2)
		assert.True(t, report.Incidents[0].Timestamp.After(report.Incidents[1].Timestamp))
	})
}
