package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/prepwise/scoring-service/internal/models"
)

// Repository aggregates the per-entity repositories so services depend on a
// single constructor argument.
type Repository interface {
	Test() TestRepository
	Attempt() AttemptRepository
	Streak() StreakRepository
	Reward() RewardRepository
	Coin() CoinRepository
	User() UserRepository
}

// TransactionRepository is implemented by repositories that can open a
// transactional view of themselves. The attempt cap check-and-insert and
// the reward award sequence both run inside one.
type TransactionRepository interface {
	Repository
	Begin(ctx context.Context) (Repository, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type TestRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Test, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error)
}

type AttemptRepository interface {
	// Create persists a new attempt. A concurrent submission racing for the
	// same attempt number surfaces as ErrDuplicateAttempt.
	Create(ctx context.Context, attempt *models.TestAttempt) error
	GetByID(ctx context.Context, id uint) (*models.TestAttempt, error)

	// GetByUserAndTest returns the pair's full history ordered by
	// attempted_at, oldest first.
	GetByUserAndTest(ctx context.Context, userID string, testID uint) ([]*models.TestAttempt, error)
	GetLatest(ctx context.Context, userID string, testID uint) (*models.TestAttempt, error)
	CountByUserAndTest(ctx context.Context, userID string, testID uint) (int64, error)
	CountByUser(ctx context.Context, userID string) (int64, error)

	// CohortScores returns every attempt's score percent for a test, the
	// input of the cohort percentile ranking.
	CohortScores(ctx context.Context, testID uint) ([]float64, error)
	GetByTest(ctx context.Context, testID uint, filters AttemptFilters) ([]*models.TestAttempt, int64, error)
	GetByUserSince(ctx context.Context, userID string, since time.Time) ([]*models.TestAttempt, error)
}

type StreakRepository interface {
	// Upsert adds the deltas onto the (user, day) row, creating it when
	// absent. Increments are additive so concurrent submissions interleave
	// safely.
	Upsert(ctx context.Context, entry *models.StreakEntry) error
	GetByUser(ctx context.Context, userID string) ([]*models.StreakEntry, error)
	GetByUserSince(ctx context.Context, userID string, since time.Time) ([]*models.StreakEntry, error)
	ActiveDayCount(ctx context.Context, userID string) (int64, error)
}

type RewardRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Reward, error)
	// ListAutoAwarded returns auto-awarded rewards whose validity window
	// covers now and whose award budget is not exhausted.
	ListAutoAwarded(ctx context.Context, now time.Time) ([]*models.Reward, error)
	HasAward(ctx context.Context, userID string, rewardID uint) (bool, error)
	CreateAward(ctx context.Context, award *models.UserRewardAward) error
	RevokeAward(ctx context.Context, userID string, rewardID uint, at time.Time) error

	// IncrementAwarded bumps total_awarded by one iff it still equals
	// expected and the budget allows it; ErrAwardConflict means a
	// concurrent evaluation won the race.
	IncrementAwarded(ctx context.Context, rewardID uint, expected int) error
}

type CoinRepository interface {
	Append(ctx context.Context, tx *models.CoinTransaction) error
	Balance(ctx context.Context, userID string) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	UserID    *string    `json:"user_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "attempted_at", "score_percent"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED ERRORS =====

var (
	ErrDuplicateAttempt = errors.New("attempt number already taken")
	ErrAwardConflict    = errors.New("reward counter changed concurrently")
)

// IsNotFoundError reports whether err is the driver's record-not-found.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
