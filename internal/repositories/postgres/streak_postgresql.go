package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
)

type StreakPostgreSQL struct {
	db *gorm.DB
}

func NewStreakPostgreSQL(db *gorm.DB) repositories.StreakRepository {
	return &StreakPostgreSQL{db: db}
}

// Upsert adds the entry's counters onto the existing (user, day) row via
// ON CONFLICT, so concurrent submissions on the same day accumulate instead
// of overwriting each other.
func (s StreakPostgreSQL) Upsert(ctx context.Context, entry *models.StreakEntry) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "activity_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"tests_completed": gorm.Expr("streak_entries.tests_completed + ?", entry.TestsCompleted),
			"time_spent":      gorm.Expr("streak_entries.time_spent + ?", entry.TimeSpent),
			"updated_at":      time.Now(),
		}),
	}).Create(entry).Error
}

func (s StreakPostgreSQL) GetByUser(ctx context.Context, userID string) ([]*models.StreakEntry, error) {
	var entries []*models.StreakEntry
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("activity_date asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s StreakPostgreSQL) GetByUserSince(ctx context.Context, userID string, since time.Time) ([]*models.StreakEntry, error) {
	var entries []*models.StreakEntry
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND activity_date >= ?", userID, since).
		Order("activity_date asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s StreakPostgreSQL) ActiveDayCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.StreakEntry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
