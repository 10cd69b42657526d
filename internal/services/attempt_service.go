package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepwise/scoring-service/internal/cache"
	"github.com/prepwise/scoring-service/internal/events"
	"github.com/prepwise/scoring-service/internal/models"
	"github.com/prepwise/scoring-service/internal/repositories"
	"github.com/prepwise/scoring-service/internal/scoring"
	"github.com/prepwise/scoring-service/internal/utils"
)

const cohortCacheTTL = 5 * time.Minute

type attemptService struct {
	repo      repositories.Repository
	trend     TrendService
	streak    StreakService
	reward    RewardService
	publisher events.EventPublisher
	cache     cache.CacheService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewAttemptService(
	repo repositories.Repository,
	trend TrendService,
	streak StreakService,
	reward RewardService,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
	validator *utils.Validator,
) AttemptService {
	return &attemptService{
		repo:      repo,
		trend:     trend,
		streak:    streak,
		reward:    reward,
		publisher: publisher,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
	}
}

// ===== SUBMISSION =====

func (s *attemptService) Submit(ctx context.Context, req *SubmitAttemptRequest, userID string) (*AttemptResponse, error) {
	s.logger.Info("Submitting test attempt",
		"test_id", req.TestID,
		"user_id", userID,
		"answers_count", len(req.Answers))

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test, err := s.repo.Test().GetByIDWithQuestions(ctx, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test.Status != models.TestPublished {
		return nil, ErrTestNotPublished
	}

	// Shape check comes before any scoring work.
	if len(req.Answers) != len(test.Questions) {
		return nil, ErrMalformedSubmission
	}

	// One retry covers the race where two submissions both pass the cap
	// check and collide on the attempt-number unique index; the recount in
	// the fresh transaction then settles who gets the remaining slot.
	attempt, outcomes, err := s.recordAttempt(ctx, test, req, userID)
	if errors.Is(err, repositories.ErrDuplicateAttempt) {
		s.logger.Warn("Concurrent submission detected, retrying once",
			"test_id", req.TestID, "user_id", userID)
		attempt, outcomes, err = s.recordAttempt(ctx, test, req, userID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Test attempt recorded",
		"attempt_id", attempt.ID,
		"attempt_number", attempt.AttemptNumber,
		"score_percent", attempt.ScorePercent)

	// Streaks, rewards, events and cache invalidation are best-effort: a
	// failure here must never roll back the persisted attempt.
	s.afterSubmit(ctx, attempt)

	return s.buildAttemptResponse(ctx, attempt, outcomes), nil
}

// recordAttempt runs the cap check and insert as one transactional unit.
func (s *attemptService) recordAttempt(ctx context.Context, test *models.Test, req *SubmitAttemptRequest, userID string) (*models.TestAttempt, []scoring.Outcome, error) {
	txRepo, err := s.repo.(repositories.TransactionRepository).Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	tx := txRepo.(repositories.TransactionRepository)
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	// Cap check happens before any scoring work; rejection leaves no
	// partial record behind.
	count, err := txRepo.Attempt().CountByUserAndTest(ctx, userID, test.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if count >= models.MaxAttemptsPerTest {
		err = ErrAttemptLimitExceeded
		return nil, nil, err
	}

	result, outcomes, err := scoring.Score(test.Questions, req.Answers, scoring.Options{
		NegativeMarking: test.NegativeMarking,
		Penalty:         test.NegativePenalty,
	})
	if err != nil {
		return nil, nil, err
	}

	cohort, cohortErr := s.cohortScores(ctx, test.ID)
	if cohortErr != nil {
		// Percentile degrades to the complement formula without a cohort.
		s.logger.Warn("Failed to load cohort scores", "test_id", test.ID, "error", cohortErr)
		cohort = nil
	}

	attempt := &models.TestAttempt{
		UserID:              userID,
		TestID:              test.ID,
		AttemptNumber:       int(count) + 1,
		Score:               result.Score,
		ScorePercent:        result.ScorePercent,
		CorrectCount:        result.CorrectCount,
		IncorrectCount:      result.IncorrectCount,
		SkippedCount:        result.SkippedCount,
		TotalQuestions:      len(test.Questions),
		TotalTimeTaken:      req.TotalTimeTaken,
		Percentile:          scoring.Percentile(result.ScorePercent, cohort),
		Badge:               scoring.Badge(result.ScorePercent),
		CoinsEarned:         scoring.Coins(result.ScorePercent, test.CoinCap),
		ChangedAnswers:      scoring.AnalyzeChanges(test.Questions, req.Answers),
		SubjectAnalytics:    scoring.SubjectBreakdown(outcomes),
		DifficultyAnalytics: scoring.DifficultyBreakdown(outcomes),
		QuestionsData:       questionResults(outcomes),
		AttemptedAt:         time.Now().UTC(),
	}

	if err = txRepo.Attempt().Create(ctx, attempt); err != nil {
		return nil, nil, err
	}

	if attempt.CoinsEarned > 0 {
		coinTx := &models.CoinTransaction{
			UserID: userID,
			Amount: attempt.CoinsEarned,
			Source: models.CoinSourceAttempt,
			RefID:  fmt.Sprintf("attempt:%d", attempt.ID),
		}
		if err = txRepo.Coin().Append(ctx, coinTx); err != nil {
			return nil, nil, fmt.Errorf("failed to append coin transaction: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit attempt: %w", err)
	}

	return attempt, outcomes, nil
}

// afterSubmit runs the post-commit enrichment chain. Every step degrades
// silently: the attempt is already durable.
func (s *attemptService) afterSubmit(ctx context.Context, attempt *models.TestAttempt) {
	if err := s.streak.RecordActivity(ctx, attempt.UserID, attempt.TotalTimeTaken); err != nil {
		s.logger.Error("Failed to record streak activity",
			"user_id", attempt.UserID, "error", err)
	} else if streak, streakErr := s.streak.GetStreak(ctx, attempt.UserID); streakErr != nil {
		s.logger.Error("Failed to derive streak after activity",
			"user_id", attempt.UserID, "error", streakErr)
	} else if pubErr := s.publisher.PublishEvent(ctx, events.NewStreakUpdatedEvent(attempt.UserID, streak)); pubErr != nil {
		s.logger.Error("Failed to publish streak updated event",
			"user_id", attempt.UserID, "error", pubErr)
	}

	snapshot, err := s.reward.BuildSnapshot(ctx, attempt.UserID, attempt)
	if err != nil {
		s.logger.Error("Failed to build reward snapshot",
			"user_id", attempt.UserID, "error", err)
	} else if _, err := s.reward.EvaluateForUser(ctx, attempt.UserID, snapshot); err != nil {
		s.logger.Error("Reward evaluation failed",
			"user_id", attempt.UserID, "error", err)
	}

	event := events.NewAttemptCompletedEvent(attempt)
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt completed event",
			"attempt_id", attempt.ID, "error", err)
	}

	if err := s.cache.Delete(ctx, cohortCacheKey(attempt.TestID)); err != nil {
		s.logger.Warn("Failed to invalidate cohort cache",
			"test_id", attempt.TestID, "error", err)
	}
}

// ===== READS =====

func (s *attemptService) GetHistoryDetail(ctx context.Context, testID uint, attemptID *uint, userID string) (*AttemptResponse, error) {
	attempts, err := s.repo.Attempt().GetByUserAndTest(ctx, userID, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}
	if len(attempts) == 0 {
		return nil, ErrAttemptNotFound
	}

	index := len(attempts) - 1
	if attemptID != nil {
		index = -1
		for i, a := range attempts {
			if a.ID == *attemptID {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, ErrAttemptNotFound
		}
	}

	attempt := attempts[index]
	resp := s.buildAttemptResponse(ctx, attempt, outcomesFromResults(attempt.QuestionsData))
	resp.Improvement = s.trend.Improvement(attempts, index)
	return resp, nil
}

func (s *attemptService) GetAttempts(ctx context.Context, testID uint, userID string) (*AttemptHistoryResponse, error) {
	attempts, err := s.repo.Attempt().GetByUserAndTest(ctx, userID, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}

	resp, err := s.trend.Compare(attempts)
	if err != nil {
		return nil, err
	}
	resp.AttemptsRemaining = models.MaxAttemptsPerTest - len(attempts)
	if resp.AttemptsRemaining < 0 {
		resp.AttemptsRemaining = 0
	}
	return resp, nil
}

func (s *attemptService) AttemptsRemaining(ctx context.Context, testID uint, userID string) (int, error) {
	count, err := s.repo.Attempt().CountByUserAndTest(ctx, userID, testID)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	remaining := models.MaxAttemptsPerTest - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ===== HELPERS =====

func (s *attemptService) buildAttemptResponse(ctx context.Context, attempt *models.TestAttempt, outcomes []scoring.Outcome) *AttemptResponse {
	weak, strong := scoring.WeakAndStrongAreas(outcomes)
	return &AttemptResponse{
		TestAttempt: attempt,
		WeakAreas:   weak,
		StrongAreas: strong,
	}
}

// cohortScores reads the test's score distribution through the cache.
func (s *attemptService) cohortScores(ctx context.Context, testID uint) ([]float64, error) {
	key := cohortCacheKey(testID)

	var cohort []float64
	if err := s.cache.Get(ctx, key, &cohort); err == nil {
		return cohort, nil
	}

	cohort, err := s.repo.Attempt().CohortScores(ctx, testID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, cohort, cohortCacheTTL); err != nil {
		s.logger.Warn("Failed to cache cohort scores", "test_id", testID, "error", err)
	}
	return cohort, nil
}

func cohortCacheKey(testID uint) string {
	return fmt.Sprintf("cohort:test:%d", testID)
}

func questionResults(outcomes []scoring.Outcome) []models.QuestionResult {
	results := make([]models.QuestionResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = models.QuestionResult{
			QuestionID:    o.QuestionID,
			Subject:       o.Subject,
			Difficulty:    o.Difficulty,
			Selected:      o.Selected,
			CorrectAnswer: o.Correct,
			IsCorrect:     o.Status == scoring.StatusCorrect,
			TimeSpent:     o.TimeSpent,
		}
	}
	return results
}

// outcomesFromResults rebuilds scoring outcomes from a persisted attempt's
// question snapshot so derived views stay consistent with submission time.
func outcomesFromResults(results []models.QuestionResult) []scoring.Outcome {
	outcomes := make([]scoring.Outcome, len(results))
	for i, r := range results {
		status := scoring.StatusIncorrect
		switch {
		case r.Selected == nil:
			status = scoring.StatusSkipped
		case r.IsCorrect:
			status = scoring.StatusCorrect
		}
		outcomes[i] = scoring.Outcome{
			QuestionID: r.QuestionID,
			Subject:    r.Subject,
			Difficulty: r.Difficulty,
			Status:     status,
			Selected:   r.Selected,
			Correct:    r.CorrectAnswer,
			TimeSpent:  r.TimeSpent,
		}
	}
	return outcomes
}
