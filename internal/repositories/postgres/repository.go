package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/prepwise/scoring-service/internal/repositories"
)

// Repository is the gorm-backed aggregate. Begin returns a view of the same
// aggregate bound to a transaction; Commit/Rollback are no-ops on the
// non-transactional root.
type Repository struct {
	db *gorm.DB
	tx bool
}

func NewRepository(db *gorm.DB) repositories.TransactionRepository {
	return &Repository{db: db}
}

func (r *Repository) Test() repositories.TestRepository {
	return NewTestPostgreSQL(r.db)
}

func (r *Repository) Attempt() repositories.AttemptRepository {
	return NewAttemptPostgreSQL(r.db)
}

func (r *Repository) Streak() repositories.StreakRepository {
	return NewStreakPostgreSQL(r.db)
}

func (r *Repository) Reward() repositories.RewardRepository {
	return NewRewardPostgreSQL(r.db)
}

func (r *Repository) Coin() repositories.CoinRepository {
	return NewCoinPostgreSQL(r.db)
}

func (r *Repository) User() repositories.UserRepository {
	return NewUserPostgreSQL(r.db)
}

func (r *Repository) Begin(ctx context.Context) (repositories.Repository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Repository{db: tx, tx: true}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if !r.tx {
		return nil
	}
	return r.db.Commit().Error
}

func (r *Repository) Rollback(ctx context.Context) error {
	if !r.tx {
		return nil
	}
	return r.db.Rollback().Error
}
