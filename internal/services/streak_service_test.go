package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/scoring-service/internal/models"
)

func seedActivity(t *testing.T, repo *fakeRepo, userID string, daysAgo ...int) {
	t.Helper()
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, d := range daysAgo {
		err := repo.Streak().Upsert(context.Background(), &models.StreakEntry{
			UserID:         userID,
			ActivityDate:   today.AddDate(0, 0, -d),
			TestsCompleted: 1,
			TimeSpent:      600,
		})
		require.NoError(t, err)
	}
}

func TestGetStreak_ConsecutiveDays(t *testing.T) {
	repo := newFakeRepo()
	// 5 consecutive days ending today, with a gap before them.
	seedActivity(t, repo, "student-1", 0, 1, 2, 3, 4, 6, 7)

	svc := NewStreakService(repo, newTestLogger(), time.UTC)
	streak, err := svc.GetStreak(context.Background(), "student-1")
	require.NoError(t, err)

	assert.Equal(t, 5, streak.CurrentStreak)
	assert.Equal(t, 5, streak.LongestStreak)
	assert.Equal(t, 6, streak.WeeklyActiveDays)
	require.NotNil(t, streak.LastActivityDate)
	assert.Len(t, streak.StreakHistory, 7)
}

func TestGetStreak_NoActivityTodayKeepsStreak(t *testing.T) {
	repo := newFakeRepo()
	// Active yesterday and the day before, nothing yet today.
	seedActivity(t, repo, "student-1", 1, 2)

	svc := NewStreakService(repo, newTestLogger(), time.UTC)
	streak, err := svc.GetStreak(context.Background(), "student-1")
	require.NoError(t, err)

	assert.Equal(t, 2, streak.CurrentStreak)
}

func TestGetStreak_LapsedStreak(t *testing.T) {
	repo := newFakeRepo()
	// Last activity two days ago: a full day was missed.
	seedActivity(t, repo, "student-1", 2, 3, 4)

	svc := NewStreakService(repo, newTestLogger(), time.UTC)
	streak, err := svc.GetStreak(context.Background(), "student-1")
	require.NoError(t, err)

	assert.Equal(t, 0, streak.CurrentStreak)
	assert.Equal(t, 3, streak.LongestStreak)
}

func TestGetStreak_LongestOutlivesCurrent(t *testing.T) {
	repo := newFakeRepo()
	// An old 4 day run, then a gap, then 2 days ending today.
	seedActivity(t, repo, "student-1", 0, 1, 10, 11, 12, 13)

	svc := NewStreakService(repo, newTestLogger(), time.UTC)
	streak, err := svc.GetStreak(context.Background(), "student-1")
	require.NoError(t, err)

	assert.Equal(t, 2, streak.CurrentStreak)
	assert.Equal(t, 4, streak.LongestStreak)
	assert.GreaterOrEqual(t, streak.LongestStreak, streak.CurrentStreak)
}

func TestGetStreak_EmptyLedger(t *testing.T) {
	repo := newFakeRepo()
	svc := NewStreakService(repo, newTestLogger(), time.UTC)

	streak, err := svc.GetStreak(context.Background(), "student-1")
	require.NoError(t, err)

	assert.Zero(t, streak.CurrentStreak)
	assert.Zero(t, streak.LongestStreak)
	assert.Nil(t, streak.LastActivityDate)
	assert.Empty(t, streak.StreakHistory)
}

func TestRecordActivity_AdditiveUpsert(t *testing.T) {
	repo := newFakeRepo()
	svc := NewStreakService(repo, newTestLogger(), time.UTC)

	require.NoError(t, svc.RecordActivity(context.Background(), "student-1", 600))
	require.NoError(t, svc.RecordActivity(context.Background(), "student-1", 300))

	entries, err := repo.Streak().GetByUser(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].TestsCompleted)
	assert.Equal(t, 900, entries[0].TimeSpent)
}
