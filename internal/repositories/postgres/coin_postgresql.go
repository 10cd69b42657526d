package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
)

type CoinPostgreSQL struct {
	db *gorm.DB
}

func NewCoinPostgreSQL(db *gorm.DB) repositories.CoinRepository {
	return &CoinPostgreSQL{db: db}
}

func (c CoinPostgreSQL) Append(ctx context.Context, tx *models.CoinTransaction) error {
	return c.db.WithContext(ctx).Create(tx).Error
}

// Balance sums the user's transaction ledger. COALESCE covers users with no
// transactions yet.
func (c CoinPostgreSQL) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := c.db.WithContext(ctx).
		Model(&models.CoinTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	return balance, err
}
