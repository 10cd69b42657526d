package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.TestAttempt) error {
	err := a.db.WithContext(ctx).Create(attempt).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		// The (user_id, test_id, attempt_number) unique index caught a
		// concurrent submission racing for the same slot.
		return repositories.ErrDuplicateAttempt
	}
	return err
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) GetByUserAndTest(ctx context.Context, userID string, testID uint) ([]*models.TestAttempt, error) {
	var attempts []*models.TestAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Order("attempted_at asc").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) GetLatest(ctx context.Context, userID string, testID uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Order("attempted_at desc").
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) CountByUserAndTest(ctx context.Context, userID string, testID uint) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Count(&count).Error
	return count, err
}

func (a AttemptPostgreSQL) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (a AttemptPostgreSQL) CohortScores(ctx context.Context, testID uint) ([]float64, error) {
	var scores []float64
	err := a.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("test_id = ?", testID).
		Pluck("score_percent", &scores).Error
	return scores, err
}

func (a AttemptPostgreSQL) GetByTest(ctx context.Context, testID uint, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	var attempts []*models.TestAttempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.TestAttempt{}).Where("test_id = ?", testID)
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Preload("User").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a AttemptPostgreSQL) GetByUserSince(ctx context.Context, userID string, since time.Time) ([]*models.TestAttempt, error) {
	var attempts []*models.TestAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ? AND attempted_at >= ?", userID, since).
		Order("attempted_at asc").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
