package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
)

type RewardPostgreSQL struct {
	db *gorm.DB
}

func NewRewardPostgreSQL(db *gorm.DB) repositories.RewardRepository {
	return &RewardPostgreSQL{db: db}
}

func (r RewardPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Reward, error) {
	var reward models.Reward
	if err := r.db.WithContext(ctx).First(&reward, id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r RewardPostgreSQL) ListAutoAwarded(ctx context.Context, now time.Time) ([]*models.Reward, error) {
	var rewards []*models.Reward
	if err := r.db.WithContext(ctx).
		Where("is_auto_awarded = true").
		Where("valid_from IS NULL OR valid_from <= ?", now).
		Where("valid_until IS NULL OR valid_until >= ?", now).
		Where("max_awards IS NULL OR total_awarded < max_awards").
		Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

func (r RewardPostgreSQL) HasAward(ctx context.Context, userID string, rewardID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserRewardAward{}).
		Where("user_id = ? AND reward_id = ? AND revoked_at IS NULL", userID, rewardID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r RewardPostgreSQL) CreateAward(ctx context.Context, award *models.UserRewardAward) error {
	return r.db.WithContext(ctx).Create(award).Error
}

func (r RewardPostgreSQL) RevokeAward(ctx context.Context, userID string, rewardID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserRewardAward{}).
		Where("user_id = ? AND reward_id = ? AND revoked_at IS NULL", userID, rewardID).
		Update("revoked_at", at).Error
}

// IncrementAwarded is the optimistic half of the award transaction: the
// update only lands when total_awarded still equals the value the evaluator
// read and the budget is not exhausted. Zero rows affected means a
// concurrent evaluation got there first.
func (r RewardPostgreSQL) IncrementAwarded(ctx context.Context, rewardID uint, expected int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ? AND total_awarded = ?", rewardID, expected).
		Where("max_awards IS NULL OR total_awarded < max_awards").
		Update("total_awarded", gorm.Expr("total_awarded + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrAwardConflict
	}
	return nil
}
