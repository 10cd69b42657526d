package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
)

// fakeRepo is an in-memory TransactionRepository. Begin returns the same
// store, so service-level tests exercise the full orchestration without a
// database.
type fakeRepo struct {
	mu sync.Mutex

	tests    map[uint]*models.Test
	attempts []*models.TestAttempt
	streaks  []*models.StreakEntry
	rewards  map[uint]*models.Reward
	awards   []*models.UserRewardAward
	coins    []*models.CoinTransaction
	users    map[string]*models.User

	nextAttemptID uint
	nextAwardID   uint

	// raceOnCreate, when set, slips the given attempt into the store just
	// before the next Create and reports a duplicate, simulating a
	// concurrent submission winning the attempt-number slot.
	raceOnCreate *models.TestAttempt

	// incrementConflicts makes the next N IncrementAwarded calls lose the
	// optimistic counter race.
	incrementConflicts int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tests:         make(map[uint]*models.Test),
		rewards:       make(map[uint]*models.Reward),
		users:         make(map[string]*models.User),
		nextAttemptID: 1,
		nextAwardID:   1,
	}
}

func (f *fakeRepo) Test() repositories.TestRepository       { return fakeTestRepo{f} }
func (f *fakeRepo) Attempt() repositories.AttemptRepository { return fakeAttemptRepo{f} }
func (f *fakeRepo) Streak() repositories.StreakRepository   { return fakeStreakRepo{f} }
func (f *fakeRepo) Reward() repositories.RewardRepository   { return fakeRewardRepo{f} }
func (f *fakeRepo) Coin() repositories.CoinRepository       { return fakeCoinRepo{f} }
func (f *fakeRepo) User() repositories.UserRepository       { return fakeUserRepo{f} }

func (f *fakeRepo) Begin(ctx context.Context) (repositories.Repository, error) { return f, nil }
func (f *fakeRepo) Commit(ctx context.Context) error                           { return nil }
func (f *fakeRepo) Rollback(ctx context.Context) error                         { return nil }

// ===== TESTS =====

type fakeTestRepo struct{ f *fakeRepo }

func (r fakeTestRepo) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	test, ok := r.f.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return test, nil
}

func (r fakeTestRepo) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	return r.GetByID(ctx, id)
}

// ===== ATTEMPTS =====

type fakeAttemptRepo struct{ f *fakeRepo }

func (r fakeAttemptRepo) Create(ctx context.Context, attempt *models.TestAttempt) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if racer := r.f.raceOnCreate; racer != nil {
		r.f.raceOnCreate = nil
		racer.ID = r.f.nextAttemptID
		r.f.nextAttemptID++
		stored := *racer
		r.f.attempts = append(r.f.attempts, &stored)
		return repositories.ErrDuplicateAttempt
	}
	for _, a := range r.f.attempts {
		if a.UserID == attempt.UserID && a.TestID == attempt.TestID && a.AttemptNumber == attempt.AttemptNumber {
			return repositories.ErrDuplicateAttempt
		}
	}
	attempt.ID = r.f.nextAttemptID
	r.f.nextAttemptID++
	stored := *attempt
	r.f.attempts = append(r.f.attempts, &stored)
	return nil
}

func (r fakeAttemptRepo) GetByID(ctx context.Context, id uint) (*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, a := range r.f.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeAttemptRepo) GetByUserAndTest(ctx context.Context, userID string, testID uint) ([]*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.TestAttempt
	for _, a := range r.f.attempts {
		if a.UserID == userID && a.TestID == testID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, nil
}

func (r fakeAttemptRepo) GetLatest(ctx context.Context, userID string, testID uint) (*models.TestAttempt, error) {
	attempts, _ := r.GetByUserAndTest(ctx, userID, testID)
	if len(attempts) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return attempts[len(attempts)-1], nil
}

func (r fakeAttemptRepo) CountByUserAndTest(ctx context.Context, userID string, testID uint) (int64, error) {
	attempts, _ := r.GetByUserAndTest(ctx, userID, testID)
	return int64(len(attempts)), nil
}

func (r fakeAttemptRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var count int64
	for _, a := range r.f.attempts {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r fakeAttemptRepo) CohortScores(ctx context.Context, testID uint) ([]float64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var scores []float64
	for _, a := range r.f.attempts {
		if a.TestID == testID {
			scores = append(scores, a.ScorePercent)
		}
	}
	return scores, nil
}

func (r fakeAttemptRepo) GetByTest(ctx context.Context, testID uint, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.TestAttempt
	for _, a := range r.f.attempts {
		if a.TestID == testID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, int64(len(out)), nil
}

func (r fakeAttemptRepo) GetByUserSince(ctx context.Context, userID string, since time.Time) ([]*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.TestAttempt
	for _, a := range r.f.attempts {
		if a.UserID == userID && !a.AttemptedAt.Before(since) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, nil
}

// ===== STREAKS =====

type fakeStreakRepo struct{ f *fakeRepo }

func (r fakeStreakRepo) Upsert(ctx context.Context, entry *models.StreakEntry) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	day := entry.ActivityDate.Format("2006-01-02")
	for _, e := range r.f.streaks {
		if e.UserID == entry.UserID && e.ActivityDate.Format("2006-01-02") == day {
			e.TestsCompleted += entry.TestsCompleted
			e.TimeSpent += entry.TimeSpent
			return nil
		}
	}
	stored := *entry
	r.f.streaks = append(r.f.streaks, &stored)
	return nil
}

func (r fakeStreakRepo) GetByUser(ctx context.Context, userID string) ([]*models.StreakEntry, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.StreakEntry
	for _, e := range r.f.streaks {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivityDate.Before(out[j].ActivityDate) })
	return out, nil
}

func (r fakeStreakRepo) GetByUserSince(ctx context.Context, userID string, since time.Time) ([]*models.StreakEntry, error) {
	entries, _ := r.GetByUser(ctx, userID)
	var out []*models.StreakEntry
	for _, e := range entries {
		if !e.ActivityDate.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r fakeStreakRepo) ActiveDayCount(ctx context.Context, userID string) (int64, error) {
	entries, _ := r.GetByUser(ctx, userID)
	return int64(len(entries)), nil
}

// ===== REWARDS =====

type fakeRewardRepo struct{ f *fakeRepo }

func (r fakeRewardRepo) GetByID(ctx context.Context, id uint) (*models.Reward, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	reward, ok := r.f.rewards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *reward
	return &copied, nil
}

func (r fakeRewardRepo) ListAutoAwarded(ctx context.Context, now time.Time) ([]*models.Reward, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Reward
	for _, reward := range r.f.rewards {
		if !reward.IsAutoAwarded || !reward.ValidAt(now) || reward.BudgetExhausted() {
			continue
		}
		copied := *reward
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeRewardRepo) HasAward(ctx context.Context, userID string, rewardID uint) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, a := range r.f.awards {
		if a.UserID == userID && a.RewardID == rewardID && a.RevokedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeRewardRepo) CreateAward(ctx context.Context, award *models.UserRewardAward) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	award.ID = r.f.nextAwardID
	r.f.nextAwardID++
	stored := *award
	r.f.awards = append(r.f.awards, &stored)
	return nil
}

func (r fakeRewardRepo) RevokeAward(ctx context.Context, userID string, rewardID uint, at time.Time) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, a := range r.f.awards {
		if a.UserID == userID && a.RewardID == rewardID && a.RevokedAt == nil {
			revoked := at
			a.RevokedAt = &revoked
			return nil
		}
	}
	return errors.New("no active award to revoke")
}

func (r fakeRewardRepo) IncrementAwarded(ctx context.Context, rewardID uint, expected int) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	reward, ok := r.f.rewards[rewardID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if r.f.incrementConflicts > 0 {
		r.f.incrementConflicts--
		return repositories.ErrAwardConflict
	}
	if reward.TotalAwarded != expected {
		return repositories.ErrAwardConflict
	}
	if reward.MaxAwards != nil && reward.TotalAwarded >= *reward.MaxAwards {
		return repositories.ErrAwardConflict
	}
	reward.TotalAwarded++
	return nil
}

// ===== COINS =====

type fakeCoinRepo struct{ f *fakeRepo }

func (r fakeCoinRepo) Append(ctx context.Context, tx *models.CoinTransaction) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	stored := *tx
	r.f.coins = append(r.f.coins, &stored)
	return nil
}

func (r fakeCoinRepo) Balance(ctx context.Context, userID string) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var balance int64
	for _, tx := range r.f.coins {
		if tx.UserID == userID {
			balance += int64(tx.Amount)
		}
	}
	return balance, nil
}

// ===== USERS =====

type fakeUserRepo struct{ f *fakeRepo }

func (r fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	user, ok := r.f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

// ===== SHARED TEST HELPERS =====

// memoryCache is a map-backed CacheService for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
