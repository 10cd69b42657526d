package models

import "time"

// StreakEntry is one row per (user, calendar day) with activity. The ledger
// is append-only: counters are only ever incremented, and streak values are
// derived from the ledger rather than stored, so they cannot drift.
type StreakEntry struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_streak_day"`
	ActivityDate time.Time `json:"activity_date" gorm:"not null;type:date;uniqueIndex:idx_streak_day"`

	TestsCompleted int `json:"tests_completed" gorm:"not null;default:0"`
	TimeSpent      int `json:"time_spent" gorm:"not null;default:0"` // Seconds

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudyStreak is the derived view returned to dashboards.
type StudyStreak struct {
	CurrentStreak    int            `json:"current_streak"`
	LongestStreak    int            `json:"longest_streak"`
	WeeklyActiveDays int            `json:"weekly_active_days"`
	LastActivityDate *time.Time     `json:"last_activity_date"`
	StreakHistory    []*StreakEntry `json:"streak_history"`
}

func (StreakEntry) TableName() string {
	return "streak_entries"
}
