package alarms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
)

// newTestRepository opens an in-memory database for one test.
func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})

	return repo
}

// testAlarm builds a stored alarm with sensible defaults.
func testAlarm(label string, next time.Time) *alarm.Alarm {
	return &alarm.Alarm{
		Label:       label,
		Time:        next.Format(alarm.TimeLayout),
		Repeat:      alarm.RepeatNone,
		Status:      alarm.StatusActive,
		NextTrigger: next,
		CreatedAt:   time.Now(),
	}
}

// TestAddAssignsIDAndRoundTrips verifies insert, id assignment and retrieval.
func TestAddAssignsIDAndRoundTrips(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	next := time.Date(2026, time.September, 1, 7, 30, 0, 0, time.UTC)
	a := testAlarm("workout", next)
	a.Date = "2026-09-01"
	a.Repeat = alarm.RepeatDaily

	require.NoError(t, repo.Add(ctx, a))
	require.NotZero(t, a.ID)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "workout", got.Label)
	require.Equal(t, "07:30", got.Time)
	require.Equal(t, "2026-09-01", got.Date)
	require.Equal(t, alarm.RepeatDaily, got.Repeat)
	require.Equal(t, alarm.StatusActive, got.Status)
	require.True(t, got.NextTrigger.Equal(next))
}

// TestGetByIDMissing verifies a missing alarm is nil, not an error.
func TestGetByIDMissing(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)

	got, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	require.Nil(t, got)
}

// TestEmptyDateStoredAsNull verifies the unscheduled date round-trips empty.
func TestEmptyDateStoredAsNull(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	a := testAlarm("workout", time.Now().Add(time.Hour))
	require.NoError(t, repo.Add(ctx, a))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, got.Date)
}

// TestDueBefore verifies the due query boundary and status filtering.
func TestDueBefore(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	past := testAlarm("past", now.Add(-time.Minute))
	exact := testAlarm("exact", now)
	future := testAlarm("future", now.Add(time.Minute))
	retired := testAlarm("retired", now.Add(-time.Hour))
	retired.Status = alarm.StatusTriggered

	for _, a := range []*alarm.Alarm{past, exact, future, retired} {
		require.NoError(t, repo.Add(ctx, a))
	}

	due, err := repo.DueBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)

	// Soonest first.
	require.Equal(t, "past", due[0].Label)
	require.Equal(t, "exact", due[1].Label)
}

// TestSetNextTriggerAndMarkTriggered verifies post-fire bookkeeping.
func TestSetNextTriggerAndMarkTriggered(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	daily := testAlarm("daily", now.Add(-time.Minute))
	oneShot := testAlarm("once", now.Add(-time.Minute))

	require.NoError(t, repo.Add(ctx, daily))
	require.NoError(t, repo.Add(ctx, oneShot))

	require.NoError(t, repo.SetNextTrigger(ctx, daily.ID, now.AddDate(0, 0, 1)))
	require.NoError(t, repo.MarkTriggered(ctx, oneShot.ID))

	due, err := repo.DueBefore(ctx, now)
	require.NoError(t, err)
	require.Empty(t, due)

	got, err := repo.GetByID(ctx, oneShot.ID)
	require.NoError(t, err)
	require.Equal(t, alarm.StatusTriggered, got.Status)
}

// TestLabelOperations verifies find and bulk delete by label.
func TestLabelOperations(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()
	next := time.Now().Add(time.Hour)

	require.NoError(t, repo.Add(ctx, testAlarm("workout", next)))
	require.NoError(t, repo.Add(ctx, testAlarm("workout", next.Add(time.Hour))))
	require.NoError(t, repo.Add(ctx, testAlarm("meeting", next)))

	found, err := repo.FindByLabel(ctx, "workout")
	require.NoError(t, err)
	require.Len(t, found, 2)

	deleted, err := repo.DeleteByLabel(ctx, "workout")
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "meeting", all[0].Label)
}

// TestUpdate verifies full-row updates and the existence report.
func TestUpdate(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	a := testAlarm("workout", time.Now().Add(time.Hour))
	require.NoError(t, repo.Add(ctx, a))

	a.Time = "08:00"
	a.Repeat = alarm.RepeatDaily

	ok, err := repo.Update(ctx, a)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "08:00", got.Time)
	require.Equal(t, alarm.RepeatDaily, got.Repeat)

	missing := testAlarm("ghost", time.Now())
	missing.ID = 999

	ok, err = repo.Update(ctx, missing)
	require.NoError(t, err)
	require.False(t, ok)
}
