package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RewardType string

const (
	RewardBadge       RewardType = "badge"
	RewardCoin        RewardType = "coin"
	RewardAchievement RewardType = "achievement"
	RewardStreak      RewardType = "streak"
	RewardLevel       RewardType = "level"
)

type CriterionType string

const (
	CriterionScore          CriterionType = "score"
	CriterionTestsCompleted CriterionType = "tests_completed"
	CriterionStreak         CriterionType = "streak"
	CriterionActiveDays     CriterionType = "active_days"
	CriterionCustom         CriterionType = "custom"
)

type CriterionOperator string

const (
	OperatorGte     CriterionOperator = "gte"
	OperatorLte     CriterionOperator = "lte"
	OperatorEq      CriterionOperator = "eq"
	OperatorBetween CriterionOperator = "between"
)

// RewardCriterion compares one snapshot value against a threshold. Value is
// used by gte/lte/eq; Low/High bound the inclusive between range. Key names
// the snapshot entry for custom criteria.
type RewardCriterion struct {
	Type     CriterionType     `json:"type" validate:"required"`
	Operator CriterionOperator `json:"operator" validate:"required,criterion_operator"`
	Key      string            `json:"key,omitempty"`
	Value    float64           `json:"value,omitempty"`
	Low      float64           `json:"low,omitempty"`
	High     float64           `json:"high,omitempty"`
}

// Matches reports whether the snapshot value satisfies the criterion.
// Unknown operators are an error rather than a silent false, so a bad rule
// shows up in logs instead of never firing.
func (c RewardCriterion) Matches(v float64) (bool, error) {
	switch c.Operator {
	case OperatorGte:
		return v >= c.Value, nil
	case OperatorLte:
		return v <= c.Value, nil
	case OperatorEq:
		return v == c.Value, nil
	case OperatorBetween:
		return v >= c.Low && v <= c.High, nil
	default:
		return false, fmt.Errorf("unknown criterion operator %q", c.Operator)
	}
}

// Reward is a declarative rule set. A reward is eligible only when every
// criterion passes. TotalAwarded is a monotonic counter guarded by an
// optimistic increment so concurrent evaluations cannot exceed MaxAwards.
type Reward struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string    `json:"description" gorm:"type:text"`
	Type        RewardType `json:"type" gorm:"not null;size:30" validate:"required,oneof=badge coin achievement streak level"`

	Criteria  datatypes.JSONSlice[RewardCriterion] `json:"criteria" gorm:"type:jsonb" validate:"required,min=1,dive"`
	CoinValue int                                  `json:"coin_value" gorm:"default:0" validate:"min=0"`

	IsAutoAwarded bool       `json:"is_auto_awarded" gorm:"default:false;index"`
	Repeatable    bool       `json:"repeatable" gorm:"default:false"`
	MaxAwards     *int       `json:"max_awards"` // nil = unlimited
	ValidFrom     *time.Time `json:"valid_from"` // nil = always
	ValidUntil    *time.Time `json:"valid_until"`

	TotalAwarded int `json:"total_awarded" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// ValidAt reports whether the reward's validity window covers t. Nil bounds
// are unbounded.
func (r *Reward) ValidAt(t time.Time) bool {
	if r.ValidFrom != nil && t.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && t.After(*r.ValidUntil) {
		return false
	}
	return true
}

// BudgetExhausted reports whether MaxAwards has been reached.
func (r *Reward) BudgetExhausted() bool {
	return r.MaxAwards != nil && r.TotalAwarded >= *r.MaxAwards
}

// UserRewardAward joins a user to a granted reward. At most one per
// (user, reward) unless the reward is repeatable; idempotency is enforced
// by the reward repository inside the award transaction.
type UserRewardAward struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;size:255;index:idx_award_pair"`
	RewardID uint   `json:"reward_id" gorm:"not null;index:idx_award_pair"`

	AwardedAt time.Time      `json:"awarded_at" gorm:"not null"`
	Reason    string         `json:"reason" gorm:"size:500"`
	Metadata  datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	RevokedAt *time.Time     `json:"revoked_at"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Reward Reward `json:"-" gorm:"foreignKey:RewardID"`
}

func (Reward) TableName() string {
	return "rewards"
}

func (UserRewardAward) TableName() string {
	return "user_reward_awards"
}
