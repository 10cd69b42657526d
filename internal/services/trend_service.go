package services

import (
	"log/slog"

	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/scoring"
)

type trendService struct {
	logger *slog.Logger
}

func NewTrendService(logger *slog.Logger) TrendService {
	return &trendService{logger: logger}
}

// Compare decorates an ordered attempt history with per-attempt deltas and
// aggregate stats. Histories that arrive out of attempt-time order are
// rejected rather than silently re-sorted; callers hold a stale read.
func (s *trendService) Compare(attempts []*models.TestAttempt) (*AttemptHistoryResponse, error) {
	resp := &AttemptHistoryResponse{
		Attempts: make([]*AttemptTrend, 0, len(attempts)),
	}
	if len(attempts) == 0 {
		return resp, nil
	}

	for i, a := range attempts {
		if i > 0 && a.AttemptedAt.Before(attempts[i-1].AttemptedAt) {
			return nil, ErrStaleComparisonData
		}

		trend := &AttemptTrend{
			AttemptID:     a.ID,
			AttemptNumber: a.AttemptNumber,
			ScorePercent:  a.ScorePercent,
			Improvement:   s.Improvement(attempts, i),
			Trend:         TrendFlat,
			AttemptedAt:   a.AttemptedAt,
		}
		if trend.Improvement != nil {
			switch {
			case *trend.Improvement > 0:
				trend.Trend = TrendUp
			case *trend.Improvement < 0:
				trend.Trend = TrendDown
			}
		}
		resp.Attempts = append(resp.Attempts, trend)

		if a.ScorePercent > resp.BestScore {
			resp.BestScore = a.ScorePercent
		}
		resp.AverageScore += a.ScorePercent
	}
	resp.AverageScore = scoring.Round1(resp.AverageScore / float64(len(attempts)))

	return resp, nil
}

// Improvement is the rounded score delta against the chronological
// predecessor. The first attempt has nothing to compare against.
func (s *trendService) Improvement(attempts []*models.TestAttempt, i int) *float64 {
	if i <= 0 || i >= len(attempts) {
		return nil
	}
	delta := scoring.Round1(attempts[i].ScorePercent - attempts[i-1].ScorePercent)
	return &delta
}
