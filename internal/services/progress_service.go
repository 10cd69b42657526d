package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
	"github.com/prepwise/scoring-service/internal/scoring"
)

type progressService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewProgressService(repo repositories.Repository, logger *slog.Logger) ProgressService {
	return &progressService{repo: repo, logger: logger}
}

// SubjectProgress aggregates the stored per-attempt subject analytics over
// the last seven days and compares against the seven days before that.
// Improvement is nil for subjects with no prior-week attempts.
func (s *progressService) SubjectProgress(ctx context.Context, userID string) ([]*SubjectProgress, error) {
	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	attempts, err := s.repo.Attempt().GetByUserSince(ctx, userID, twoWeeksAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent attempts: %w", err)
	}

	thisWeek := make(map[models.Subject]*subjectTally)
	lastWeek := make(map[models.Subject]*subjectTally)
	for _, a := range attempts {
		bucket := lastWeek
		if !a.AttemptedAt.Before(weekAgo) {
			bucket = thisWeek
		}
		for _, sa := range a.SubjectAnalytics {
			t, ok := bucket[sa.Subject]
			if !ok {
				t = &subjectTally{}
				bucket[sa.Subject] = t
			}
			t.correct += sa.Correct
			t.total += sa.Total
		}
	}

	subjects := make([]models.Subject, 0, len(thisWeek))
	for subject := range thisWeek {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })

	progress := make([]*SubjectProgress, 0, len(subjects))
	for _, subject := range subjects {
		current := thisWeek[subject]
		p := &SubjectProgress{
			SubjectAnalytic: models.SubjectAnalytic{
				Subject:  subject,
				Correct:  current.correct,
				Total:    current.total,
				Accuracy: current.accuracy(),
			},
		}
		if prior, ok := lastWeek[subject]; ok && prior.total > 0 {
			delta := scoring.Round1(current.accuracy() - prior.accuracy())
			p.Improvement = &delta
		}
		progress = append(progress, p)
	}
	return progress, nil
}

func (s *progressService) CoinBalance(ctx context.Context, userID string) (int64, error) {
	balance, err := s.repo.Coin().Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read coin balance: %w", err)
	}
	return balance, nil
}

type subjectTally struct {
	correct int
	total   int
}

func (t subjectTally) accuracy() float64 {
	if t.total == 0 {
		return 0
	}
	return scoring.Round1(float64(t.correct) / float64(t.total) * 100)
}
