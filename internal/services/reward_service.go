package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepwise/scoring-service/internal/events"
	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
	"github.com/prepwise/scoring-service/internal/utils"
)

type rewardService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
	// Streak criteria must see the same day boundary the streak tracker
	// uses, so the snapshot walk shares its location.
	location *time.Location
}

func NewRewardService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator, location *time.Location) RewardService {
	if location == nil {
		location = time.UTC
	}
	return &rewardService{repo: repo, publisher: publisher, logger: logger, validator: validator, location: location}
}

// ===== AUTO EVALUATION =====

// EvaluateForUser runs every active auto-awarded rule against the snapshot.
// A single broken rule or lost counter race skips that reward and moves on;
// evaluation is re-run on the next submission anyway.
func (s *rewardService) EvaluateForUser(ctx context.Context, userID string, snapshot *Snapshot) ([]*models.UserRewardAward, error) {
	rewards, err := s.repo.Reward().ListAutoAwarded(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-awarded rewards: %w", err)
	}

	var issued []*models.UserRewardAward
	for _, reward := range rewards {
		eligible, err := s.eligible(reward, snapshot)
		if err != nil {
			s.logger.Error("Skipping reward with broken criteria",
				"reward_id", reward.ID, "error", err)
			continue
		}
		if !eligible {
			continue
		}

		award, err := s.issue(ctx, reward, userID, "auto")
		if err != nil {
			s.logger.Error("Failed to issue reward",
				"reward_id", reward.ID, "user_id", userID, "error", err)
			continue
		}
		if award != nil {
			issued = append(issued, award)
		}
	}
	return issued, nil
}

// eligible requires every criterion to pass.
func (s *rewardService) eligible(reward *models.Reward, snapshot *Snapshot) (bool, error) {
	for _, c := range reward.Criteria {
		value, ok := snapshot.value(c)
		if !ok {
			return false, nil
		}
		matched, err := c.Matches(value)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return len(reward.Criteria) > 0, nil
}

// value resolves the snapshot entry a criterion compares against.
func (snap *Snapshot) value(c models.RewardCriterion) (float64, bool) {
	switch c.Type {
	case models.CriterionScore:
		if snap.LatestScorePercent == nil {
			return 0, false
		}
		return *snap.LatestScorePercent, true
	case models.CriterionTestsCompleted:
		return float64(snap.TestsCompleted), true
	case models.CriterionStreak:
		return float64(snap.CurrentStreak), true
	case models.CriterionActiveDays:
		return float64(snap.ActiveDays), true
	case models.CriterionCustom:
		v, ok := snap.Custom[c.Key]
		return v, ok
	default:
		return 0, false
	}
}

// issue grants one award, guarding both idempotency and the award budget.
// The budget counter uses an optimistic increment; on a lost race the whole
// sequence retries once against fresh state, then surfaces
// ErrRewardEvaluationConflict for the caller to handle.
func (s *rewardService) issue(ctx context.Context, reward *models.Reward, userID, reason string) (*models.UserRewardAward, error) {
	award, err := s.issueOnce(ctx, reward, userID, reason)
	if errors.Is(err, repositories.ErrAwardConflict) {
		fresh, freshErr := s.repo.Reward().GetByID(ctx, reward.ID)
		if freshErr != nil {
			return nil, freshErr
		}
		award, err = s.issueOnce(ctx, fresh, userID, reason)
		if errors.Is(err, repositories.ErrAwardConflict) {
			s.logger.Warn("Reward counter still contended after retry",
				"reward_id", reward.ID, "user_id", userID)
			return nil, ErrRewardEvaluationConflict
		}
	}
	return award, err
}

func (s *rewardService) issueOnce(ctx context.Context, reward *models.Reward, userID, reason string) (*models.UserRewardAward, error) {
	if reward.BudgetExhausted() {
		return nil, nil
	}

	txRepo, err := s.repo.(repositories.TransactionRepository).Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	tx := txRepo.(repositories.TransactionRepository)
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if !reward.Repeatable {
		has, hasErr := txRepo.Reward().HasAward(ctx, userID, reward.ID)
		if hasErr != nil {
			err = hasErr
			return nil, err
		}
		if has {
			tx.Rollback(ctx)
			return nil, nil
		}
	}

	if err = txRepo.Reward().IncrementAwarded(ctx, reward.ID, reward.TotalAwarded); err != nil {
		return nil, err
	}

	award := &models.UserRewardAward{
		UserID:    userID,
		RewardID:  reward.ID,
		AwardedAt: time.Now().UTC(),
		Reason:    reason,
	}
	if err = txRepo.Reward().CreateAward(ctx, award); err != nil {
		return nil, err
	}

	if reward.CoinValue > 0 {
		coinTx := &models.CoinTransaction{
			UserID: userID,
			Amount: reward.CoinValue,
			Source: models.CoinSourceReward,
			RefID:  fmt.Sprintf("reward:%d", reward.ID),
		}
		if err = txRepo.Coin().Append(ctx, coinTx); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit award: %w", err)
	}

	s.logger.Info("Reward awarded",
		"reward_id", reward.ID, "user_id", userID, "coin_value", reward.CoinValue)

	if pubErr := s.publisher.PublishEvent(ctx, events.NewRewardAwardedEvent(award, reward)); pubErr != nil {
		s.logger.Error("Failed to publish reward awarded event",
			"reward_id", reward.ID, "error", pubErr)
	}
	return award, nil
}

// ===== SNAPSHOT =====

func (s *rewardService) BuildSnapshot(ctx context.Context, userID string, latest *models.TestAttempt) (*Snapshot, error) {
	snapshot := &Snapshot{}
	if latest != nil {
		score := latest.ScorePercent
		snapshot.LatestScorePercent = &score
	}

	completed, err := s.repo.Attempt().CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	snapshot.TestsCompleted = int(completed)

	activeDays, err := s.repo.Streak().ActiveDayCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active days: %w", err)
	}
	snapshot.ActiveDays = int(activeDays)

	entries, err := s.repo.Streak().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load streak ledger: %w", err)
	}
	snapshot.CurrentStreak = currentStreakFromEntries(entries, time.Now(), s.location)

	return snapshot, nil
}

// currentStreakFromEntries mirrors the streak service's backward walk over a
// sorted ledger, anchored on today or yesterday. Day keys are formed in the
// same location the streak tracker writes ledger rows in.
func currentStreakFromEntries(entries []*models.StreakEntry, now time.Time, loc *time.Location) int {
	active := make(map[string]bool, len(entries))
	for _, e := range entries {
		active[e.ActivityDate.In(loc).Format("2006-01-02")] = true
	}

	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if !active[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}
	count := 0
	for active[day.Format("2006-01-02")] {
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// ===== MANUAL AWARD / REVOKE =====

func (s *rewardService) Award(ctx context.Context, rewardID uint, req *AwardRequest, actorID string) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := s.requireTutorOrAdmin(ctx, actorID, rewardID, "award"); err != nil {
		return err
	}

	reward, err := s.repo.Reward().GetByID(ctx, rewardID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrRewardNotFound
		}
		return fmt.Errorf("failed to get reward: %w", err)
	}

	for _, userID := range req.UserIDs {
		award, issueErr := s.issue(ctx, reward, userID, req.Reason)
		if issueErr != nil {
			return issueErr
		}
		if award == nil {
			s.logger.Info("Manual award skipped",
				"reward_id", rewardID, "user_id", userID)
		}
		// Reload so the next iteration sees the bumped counter.
		if reward, err = s.repo.Reward().GetByID(ctx, rewardID); err != nil {
			return fmt.Errorf("failed to reload reward: %w", err)
		}
	}
	return nil
}

func (s *rewardService) Revoke(ctx context.Context, rewardID uint, req *AwardRequest, actorID string) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := s.requireTutorOrAdmin(ctx, actorID, rewardID, "revoke"); err != nil {
		return err
	}

	if _, err := s.repo.Reward().GetByID(ctx, rewardID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrRewardNotFound
		}
		return fmt.Errorf("failed to get reward: %w", err)
	}

	now := time.Now().UTC()
	for _, userID := range req.UserIDs {
		if err := s.repo.Reward().RevokeAward(ctx, userID, rewardID, now); err != nil {
			return fmt.Errorf("failed to revoke award for user %s: %w", userID, err)
		}
		if pubErr := s.publisher.PublishEvent(ctx, events.NewRewardRevokedEvent(rewardID, userID, req.Reason, now)); pubErr != nil {
			s.logger.Error("Failed to publish reward revoked event",
				"reward_id", rewardID, "user_id", userID, "error", pubErr)
		}
	}
	return nil
}

func (s *rewardService) requireTutorOrAdmin(ctx context.Context, actorID string, rewardID uint, action string) error {
	actor, err := s.repo.User().GetByID(ctx, actorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if actor.Role != models.RoleTutor && actor.Role != models.RoleAdmin {
		return NewPermissionError(actorID, rewardID, "reward", action, "requires tutor or admin role")
	}
	return nil
}
