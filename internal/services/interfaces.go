package services

import (
	"context"
	"time"

	"github.com/prepwise/scoring-service/internal/models"
)

// ===== REQUESTS =====

type SubmitAttemptRequest struct {
	TestID         uint                  `json:"test_id" validate:"required"`
	Answers        []models.AnswerRecord `json:"answers" validate:"required,min=1"`
	TotalTimeTaken int                   `json:"total_time_taken" validate:"min=0"` // Seconds
}

type AwardRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
	Reason  string   `json:"reason" validate:"required,min=1,max=500"`
}

// ===== RESPONSES =====

type AttemptResponse struct {
	*models.TestAttempt
	WeakAreas   []models.Subject `json:"weak_areas"`
	StrongAreas []models.Subject `json:"strong_areas"`
	// Improvement vs the previous attempt; nil on the first one.
	Improvement *float64 `json:"improvement"`
}

type AttemptHistoryResponse struct {
	Attempts          []*AttemptTrend `json:"attempts"`
	BestScore         float64         `json:"best_score"`
	AverageScore      float64         `json:"average_score"`
	AttemptsRemaining int             `json:"attempts_remaining"`
}

type AttemptTrend struct {
	AttemptID     uint      `json:"attempt_id"`
	AttemptNumber int       `json:"attempt_number"`
	ScorePercent  float64   `json:"score_percent"`
	Improvement   *float64  `json:"improvement"`
	Trend         TrendIcon `json:"trend"`
	AttemptedAt   time.Time `json:"attempted_at"`
}

type TrendIcon string

const (
	TrendUp   TrendIcon = "up"
	TrendDown TrendIcon = "down"
	TrendFlat TrendIcon = "flat"
)

type SubjectProgress struct {
	models.SubjectAnalytic
	// Week-over-week accuracy delta; nil when last week has no attempts.
	Improvement *float64 `json:"improvement"`
}

// Snapshot is the aggregate view of a user the reward evaluator matches
// criteria against. Custom holds externally supplied values keyed by
// criterion key.
type Snapshot struct {
	LatestScorePercent *float64
	TestsCompleted     int
	CurrentStreak      int
	ActiveDays         int
	Custom             map[string]float64
}

// ===== SERVICE INTERFACES =====

type AttemptService interface {
	// Submit scores and records one attempt for the authenticated user,
	// failing with ErrAttemptLimitExceeded once the pair's cap is reached
	// and ErrMalformedSubmission when answers do not match the test.
	Submit(ctx context.Context, req *SubmitAttemptRequest, userID string) (*AttemptResponse, error)
	// GetHistoryDetail returns one attempt in full; attemptID nil means the
	// latest.
	GetHistoryDetail(ctx context.Context, testID uint, attemptID *uint, userID string) (*AttemptResponse, error)
	// GetAttempts returns the ordered attempt list with trend decorations.
	GetAttempts(ctx context.Context, testID uint, userID string) (*AttemptHistoryResponse, error)
	// AttemptsRemaining reports how many submissions the pair has left.
	AttemptsRemaining(ctx context.Context, testID uint, userID string) (int, error)
}

type TrendService interface {
	// Compare derives deltas and best/average over an attempt history that
	// must already be ordered by attempted_at, oldest first.
	Compare(attempts []*models.TestAttempt) (*AttemptHistoryResponse, error)
	// Improvement returns the score delta of attempts[i] vs its
	// predecessor, nil for the first attempt.
	Improvement(attempts []*models.TestAttempt, i int) *float64
}

type StreakService interface {
	// RecordActivity upserts today's ledger entry for the user.
	RecordActivity(ctx context.Context, userID string, timeSpent int) error
	GetStreak(ctx context.Context, userID string) (*models.StudyStreak, error)
}

type RewardService interface {
	// EvaluateForUser matches every active auto-awarded reward against the
	// snapshot and issues the eligible ones. Idempotent: re-running against
	// an unchanged snapshot never duplicates a non-repeatable award.
	EvaluateForUser(ctx context.Context, userID string, snapshot *Snapshot) ([]*models.UserRewardAward, error)
	BuildSnapshot(ctx context.Context, userID string, latest *models.TestAttempt) (*Snapshot, error)
	Award(ctx context.Context, rewardID uint, req *AwardRequest, actorID string) error
	Revoke(ctx context.Context, rewardID uint, req *AwardRequest, actorID string) error
}

type ProgressService interface {
	// SubjectProgress aggregates per-subject accuracy over the last week
	// with a week-over-week improvement delta.
	SubjectProgress(ctx context.Context, userID string) ([]*SubjectProgress, error)
	CoinBalance(ctx context.Context, userID string) (int64, error)
}

type ExportService interface {
	// ExportTestResults builds an xlsx workbook of a test's attempts and
	// subject analytics. Tutor/admin only.
	ExportTestResults(ctx context.Context, testID uint, actorID string) ([]byte, error)
}

// ServiceManager wires every service over one repository.
type ServiceManager interface {
	Attempt() AttemptService
	Trend() TrendService
	Streak() StreakService
	Reward() RewardService
	Progress() ProgressService
	Export() ExportService
}
