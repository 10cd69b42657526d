package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/prepwise/scoring-service/internal/models"
)

func analyticsAttempt(id uint, userID string, at time.Time, analytics ...models.SubjectAnalytic) *models.TestAttempt {
	return &models.TestAttempt{
		ID:               id,
		UserID:           userID,
		TestID:           1,
		AttemptNumber:    1,
		AttemptedAt:      at,
		SubjectAnalytics: datatypes.JSONSlice[models.SubjectAnalytic](analytics),
	}
}

func TestSubjectProgress_WeekOverWeek(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now().UTC()

	// Last week: Physics 4/10.
	repo.attempts = append(repo.attempts, analyticsAttempt(1, "student-1", now.AddDate(0, 0, -10),
		models.SubjectAnalytic{Subject: models.SubjectPhysics, Correct: 4, Total: 10, Accuracy: 40},
	))
	// This week: Physics 6/10 and Chemistry 3/5.
	repo.attempts = append(repo.attempts, analyticsAttempt(2, "student-1", now.AddDate(0, 0, -2),
		models.SubjectAnalytic{Subject: models.SubjectPhysics, Correct: 6, Total: 10, Accuracy: 60},
		models.SubjectAnalytic{Subject: models.SubjectChemistry, Correct: 3, Total: 5, Accuracy: 60},
	))

	svc := NewProgressService(repo, newTestLogger())
	progress, err := svc.SubjectProgress(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, progress, 2)

	// Sorted by subject name: Chemistry before Physics.
	chemistry := progress[0]
	assert.Equal(t, models.SubjectChemistry, chemistry.Subject)
	assert.Equal(t, 60.0, chemistry.Accuracy)
	// No prior-week Chemistry attempts, so no delta.
	assert.Nil(t, chemistry.Improvement)

	physics := progress[1]
	assert.Equal(t, models.SubjectPhysics, physics.Subject)
	assert.Equal(t, 6, physics.Correct)
	assert.Equal(t, 60.0, physics.Accuracy)
	require.NotNil(t, physics.Improvement)
	assert.Equal(t, 20.0, *physics.Improvement)
}

func TestSubjectProgress_NoRecentAttempts(t *testing.T) {
	repo := newFakeRepo()
	svc := NewProgressService(repo, newTestLogger())

	progress, err := svc.SubjectProgress(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Empty(t, progress)
}

func TestCoinBalance(t *testing.T) {
	repo := newFakeRepo()
	require.NoError(t, repo.Coin().Append(context.Background(), &models.CoinTransaction{
		UserID: "student-1", Amount: 140, Source: models.CoinSourceAttempt, RefID: "attempt:1",
	}))
	require.NoError(t, repo.Coin().Append(context.Background(), &models.CoinTransaction{
		UserID: "student-1", Amount: 50, Source: models.CoinSourceReward, RefID: "reward:1",
	}))
	require.NoError(t, repo.Coin().Append(context.Background(), &models.CoinTransaction{
		UserID: "student-2", Amount: 30, Source: models.CoinSourceAttempt, RefID: "attempt:2",
	}))

	svc := NewProgressService(repo, newTestLogger())
	balance, err := svc.CoinBalance(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, int64(190), balance)
}
