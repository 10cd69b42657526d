package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/scoring-service/internal/models"
)

func attemptAt(number int, scorePercent float64, at time.Time) *models.TestAttempt {
	return &models.TestAttempt{
		ID:            uint(number),
		AttemptNumber: number,
		ScorePercent:  scorePercent,
		AttemptedAt:   at,
	}
}

func TestCompare_DerivesDeltasAndTrend(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	attempts := []*models.TestAttempt{
		attemptAt(1, 55.0, base),
		attemptAt(2, 70.0, base.Add(24*time.Hour)),
		attemptAt(3, 70.0, base.Add(48*time.Hour)),
		attemptAt(4, 62.5, base.Add(72*time.Hour)),
	}

	svc := NewTrendService(newTestLogger())
	resp, err := svc.Compare(attempts)
	require.NoError(t, err)

	require.Len(t, resp.Attempts, 4)
	assert.Equal(t, 70.0, resp.BestScore)
	assert.Equal(t, 64.4, resp.AverageScore)

	assert.Nil(t, resp.Attempts[0].Improvement)
	assert.Equal(t, TrendFlat, resp.Attempts[0].Trend)

	require.NotNil(t, resp.Attempts[1].Improvement)
	assert.Equal(t, 15.0, *resp.Attempts[1].Improvement)
	assert.Equal(t, TrendUp, resp.Attempts[1].Trend)

	require.NotNil(t, resp.Attempts[2].Improvement)
	assert.Equal(t, 0.0, *resp.Attempts[2].Improvement)
	assert.Equal(t, TrendFlat, resp.Attempts[2].Trend)

	require.NotNil(t, resp.Attempts[3].Improvement)
	assert.Equal(t, -7.5, *resp.Attempts[3].Improvement)
	assert.Equal(t, TrendDown, resp.Attempts[3].Trend)
}

func TestCompare_EmptyHistory(t *testing.T) {
	svc := NewTrendService(newTestLogger())
	resp, err := svc.Compare(nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Attempts)
	assert.Zero(t, resp.BestScore)
	assert.Zero(t, resp.AverageScore)
}

func TestCompare_RejectsUnorderedHistory(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	attempts := []*models.TestAttempt{
		attemptAt(2, 70.0, base.Add(24*time.Hour)),
		attemptAt(1, 55.0, base),
	}

	svc := NewTrendService(newTestLogger())
	_, err := svc.Compare(attempts)
	assert.ErrorIs(t, err, ErrStaleComparisonData)
}

func TestImprovement_Bounds(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	attempts := []*models.TestAttempt{
		attemptAt(1, 50.0, base),
		attemptAt(2, 61.3, base.Add(time.Hour)),
	}

	svc := NewTrendService(newTestLogger())
	assert.Nil(t, svc.Improvement(attempts, 0))
	assert.Nil(t, svc.Improvement(attempts, 2))
	assert.Nil(t, svc.Improvement(attempts, -1))

	delta := svc.Improvement(attempts, 1)
	require.NotNil(t, delta)
	assert.Equal(t, 11.3, *delta)
}
