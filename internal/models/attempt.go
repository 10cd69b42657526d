package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnswerRecord is the per-question payload of a submission. Selected is nil
// when the question was skipped. History holds every selection made during
// the attempt in chronological order, including the final one; it may be
// empty when the client does not track revisions.
type AnswerRecord struct {
	Selected  *int  `json:"selected"`
	TimeSpent int   `json:"time_spent" validate:"min=0"` // Seconds
	History   []int `json:"history,omitempty"`
}

// QuestionResult is the immutable per-question snapshot stored with an
// attempt so results pages never need to re-join against the test.
type QuestionResult struct {
	QuestionID    uint            `json:"question_id"`
	Subject       Subject         `json:"subject"`
	Difficulty    DifficultyLevel `json:"difficulty"`
	Selected      *int            `json:"selected"`
	CorrectAnswer int             `json:"correct_answer"`
	IsCorrect     bool            `json:"is_correct"`
	TimeSpent     int             `json:"time_spent"`
}

type SubjectAnalytic struct {
	Subject  Subject `json:"subject"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

type DifficultyAnalytic struct {
	Difficulty DifficultyLevel `json:"difficulty"`
	Correct    int             `json:"correct"`
	Total      int             `json:"total"`
	Accuracy   float64         `json:"accuracy"`
}

type ChangedAnswersSummary struct {
	TotalChanged       int `json:"total_changed"`
	CorrectAfterChange int `json:"correct_after_change"`
}

// TestAttempt is created once on submission and never mutated afterwards.
// At most MaxAttemptsPerTest rows may exist per (user_id, test_id) pair;
// the unique index on (user_id, test_id, attempt_number) backs the
// optimistic cap enforcement in the attempt repository.
type TestAttempt struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	UserID        string `json:"user_id" gorm:"not null;size:255;index:idx_attempt_pair;uniqueIndex:idx_attempt_number"`
	TestID        uint   `json:"test_id" gorm:"not null;index:idx_attempt_pair;uniqueIndex:idx_attempt_number"`
	AttemptNumber int    `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_number"`

	Score          float64 `json:"score"`
	ScorePercent   float64 `json:"score_percent"` // 0-100, one decimal
	CorrectCount   int     `json:"correct_count"`
	IncorrectCount int     `json:"incorrect_count"`
	SkippedCount   int     `json:"skipped_count"`
	TotalQuestions int     `json:"total_questions"`
	TotalTimeTaken int     `json:"total_time_taken"` // Seconds

	Percentile  float64 `json:"percentile"`
	Badge       string  `json:"badge" gorm:"size:50"`
	CoinsEarned int     `json:"coins_earned"`

	ChangedAnswers ChangedAnswersSummary `json:"changed_answers" gorm:"embedded;embeddedPrefix:changed_"`

	SubjectAnalytics    datatypes.JSONSlice[SubjectAnalytic]    `json:"subject_analytics" gorm:"type:jsonb"`
	DifficultyAnalytics datatypes.JSONSlice[DifficultyAnalytic] `json:"difficulty_analytics" gorm:"type:jsonb"`
	QuestionsData       datatypes.JSONSlice[QuestionResult]     `json:"questions_data" gorm:"type:jsonb"`

	AttemptedAt time.Time `json:"attempted_at" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
	Test Test `json:"-" gorm:"foreignKey:TestID"`
}

// MaxAttemptsPerTest is the hard cap on attempts per (user, test) pair.
const MaxAttemptsPerTest = 3

func (TestAttempt) TableName() string {
	return "test_attempts"
}
