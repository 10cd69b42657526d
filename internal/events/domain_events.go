package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/prepwise/scoring-service/internal/models"
)

// EventType represents the different domain events the service emits
type EventType string

const (
	// Attempt events
	EventAttemptCompleted EventType = "attempt.completed"

	// Streak events
	EventStreakUpdated EventType = "streak.updated"

	// Reward events
	EventRewardAwarded EventType = "reward.awarded"
	EventRewardRevoked EventType = "reward.revoked"
)

// DomainEvent is the envelope shared by every published event
type DomainEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Attempt event payloads

type AttemptCompletedEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	TestID        uint      `json:"test_id"`
	UserID        string    `json:"user_id"`
	AttemptNumber int       `json:"attempt_number"`
	ScorePercent  float64   `json:"score_percent"`
	Percentile    float64   `json:"percentile"`
	Badge         string    `json:"badge"`
	CoinsEarned   int       `json:"coins_earned"`
	AttemptedAt   time.Time `json:"attempted_at"`
}

// Streak event payload

type StreakUpdatedEvent struct {
	UserID        string `json:"user_id"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// Reward event payloads

type RewardAwardedEvent struct {
	AwardID    uint      `json:"award_id"`
	RewardID   uint      `json:"reward_id"`
	RewardName string    `json:"reward_name"`
	UserID     string    `json:"user_id"`
	CoinValue  int       `json:"coin_value"`
	Reason     string    `json:"reason"`
	AwardedAt  time.Time `json:"awarded_at"`
}

type RewardRevokedEvent struct {
	RewardID  uint      `json:"reward_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	RevokedAt time.Time `json:"revoked_at"`
}

// Event factory functions

func NewAttemptCompletedEvent(attempt *models.TestAttempt) *DomainEvent {
	return newEvent(EventAttemptCompleted, AttemptCompletedEvent{
		AttemptID:     attempt.ID,
		TestID:        attempt.TestID,
		UserID:        attempt.UserID,
		AttemptNumber: attempt.AttemptNumber,
		ScorePercent:  attempt.ScorePercent,
		Percentile:    attempt.Percentile,
		Badge:         attempt.Badge,
		CoinsEarned:   attempt.CoinsEarned,
		AttemptedAt:   attempt.AttemptedAt,
	})
}

func NewStreakUpdatedEvent(userID string, streak *models.StudyStreak) *DomainEvent {
	return newEvent(EventStreakUpdated, StreakUpdatedEvent{
		UserID:        userID,
		CurrentStreak: streak.CurrentStreak,
		LongestStreak: streak.LongestStreak,
	})
}

func NewRewardAwardedEvent(award *models.UserRewardAward, reward *models.Reward) *DomainEvent {
	return newEvent(EventRewardAwarded, RewardAwardedEvent{
		AwardID:    award.ID,
		RewardID:   reward.ID,
		RewardName: reward.Name,
		UserID:     award.UserID,
		CoinValue:  reward.CoinValue,
		Reason:     award.Reason,
		AwardedAt:  award.AwardedAt,
	})
}

func NewRewardRevokedEvent(rewardID uint, userID, reason string, revokedAt time.Time) *DomainEvent {
	return newEvent(EventRewardRevoked, RewardRevokedEvent{
		RewardID:  rewardID,
		UserID:    userID,
		Reason:    reason,
		RevokedAt: revokedAt,
	})
}

func newEvent(eventType EventType, data interface{}) *DomainEvent {
	return &DomainEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "scoring-service",
		Version:   "1.0",
		Data:      data,
	}
}
