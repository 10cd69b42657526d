package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
)

type streakService struct {
	repo   repositories.Repository
	logger *slog.Logger
	// Streak days roll over at local midnight in this zone.
	location *time.Location
}

func NewStreakService(repo repositories.Repository, logger *slog.Logger, location *time.Location) StreakService {
	if location == nil {
		location = time.UTC
	}
	return &streakService{repo: repo, logger: logger, location: location}
}

// RecordActivity adds one completed test onto today's ledger row.
func (s *streakService) RecordActivity(ctx context.Context, userID string, timeSpent int) error {
	entry := &models.StreakEntry{
		UserID:         userID,
		ActivityDate:   s.today(),
		TestsCompleted: 1,
		TimeSpent:      timeSpent,
	}
	if err := s.repo.Streak().Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to upsert streak entry: %w", err)
	}
	return nil
}

func (s *streakService) GetStreak(ctx context.Context, userID string) (*models.StudyStreak, error) {
	entries, err := s.repo.Streak().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load streak ledger: %w", err)
	}

	streak := &models.StudyStreak{StreakHistory: entries}
	if len(entries) == 0 {
		return streak, nil
	}

	active := make(map[string]bool, len(entries))
	for _, e := range entries {
		active[s.dayKey(e.ActivityDate)] = true
	}

	last := entries[len(entries)-1].ActivityDate
	streak.LastActivityDate = &last
	streak.CurrentStreak = s.currentStreak(active)
	streak.LongestStreak = s.longestStreak(entries)
	streak.WeeklyActiveDays = s.weeklyActiveDays(active)

	return streak, nil
}

// currentStreak walks backwards day by day from the anchor. A day without
// activity today does not break the streak yet; the walk then anchors on
// yesterday, so the streak only lapses once a full day is missed.
func (s *streakService) currentStreak(active map[string]bool) int {
	day := s.today()
	if !active[s.dayKey(day)] {
		day = day.AddDate(0, 0, -1)
	}

	count := 0
	for active[s.dayKey(day)] {
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// longestStreak scans the ordered ledger once, extending a run while days
// are consecutive and resetting on any gap.
func (s *streakService) longestStreak(entries []*models.StreakEntry) int {
	longest, run := 0, 0
	var prev time.Time
	for i, e := range entries {
		day := s.truncate(e.ActivityDate)
		if i > 0 && prev.AddDate(0, 0, 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = day
	}
	return longest
}

func (s *streakService) weeklyActiveDays(active map[string]bool) int {
	count := 0
	day := s.today()
	for i := 0; i < 7; i++ {
		if active[s.dayKey(day)] {
			count++
		}
		day = day.AddDate(0, 0, -1)
	}
	return count
}

func (s *streakService) today() time.Time {
	return s.truncate(time.Now().In(s.location))
}

func (s *streakService) truncate(t time.Time) time.Time {
	t = t.In(s.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.location)
}

func (s *streakService) dayKey(t time.Time) string {
	return t.In(s.location).Format("2006-01-02")
}
