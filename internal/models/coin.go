package models

import "time"

type CoinSource string

const (
	CoinSourceAttempt CoinSource = "attempt"
	CoinSourceReward  CoinSource = "reward"
	CoinSourceManual  CoinSource = "manual"
)

// CoinTransaction is one row per coin delta. The balance is always derived
// as the sum of a user's transactions; concurrent submissions across tests
// append independently and never overwrite each other.
type CoinTransaction struct {
	ID     uint       `json:"id" gorm:"primaryKey"`
	UserID string     `json:"user_id" gorm:"not null;size:255;index"`
	Amount int        `json:"amount" gorm:"not null"`
	Source CoinSource `json:"source" gorm:"not null;size:20"`
	RefID  string     `json:"ref_id" gorm:"size:100"` // attempt or award identifier

	CreatedAt time.Time `json:"created_at"`
}

func (CoinTransaction) TableName() string {
	return "coin_transactions"
}
