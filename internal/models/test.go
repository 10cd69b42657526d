package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestStatus string

const (
	TestDraft     TestStatus = "Draft"
	TestPublished TestStatus = "Published"
	TestArchived  TestStatus = "Archived"
)

type Subject string

const (
	SubjectPhysics     Subject = "Physics"
	SubjectChemistry   Subject = "Chemistry"
	SubjectMathematics Subject = "Mathematics"
	SubjectBiology     Subject = "Biology"
	SubjectEnglish     Subject = "English"
	SubjectGeneral     Subject = "General"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
)

// Test is immutable once published; attempts reference it by ID and keep
// their own snapshot of per-question results.
type Test struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	Title             string          `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description       *string         `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Duration          int             `json:"duration" gorm:"not null" validate:"required,min=5,max=300"` // Minutes
	OverallDifficulty DifficultyLevel `json:"overall_difficulty" gorm:"size:20" validate:"omitempty,difficulty_level"`
	NumberOfQuestions int             `json:"number_of_questions" gorm:"not null" validate:"required,min=1"`
	Status            TestStatus      `json:"status" gorm:"default:Draft;index" validate:"omitempty,oneof=Draft Published Archived"`

	// Negative marking is off unless a test explicitly declares it.
	NegativeMarking bool    `json:"negative_marking" gorm:"default:false"`
	NegativePenalty float64 `json:"negative_penalty" gorm:"default:0" validate:"min=0"`

	// Optional ceiling on coins a single attempt can earn.
	CoinCap *int `json:"coin_cap" validate:"omitempty,min=0"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:TestID"`
	Creator   User       `json:"creator" gorm:"foreignKey:CreatedBy"`
}

type Question struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	TestID     uint            `json:"test_id" gorm:"not null;index"`
	Order      int             `json:"order" gorm:"not null"`
	Subject    Subject         `json:"subject" gorm:"not null;size:30;index" validate:"required,subject"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"not null;size:20" validate:"required,difficulty_level"`
	Text       string          `json:"text" gorm:"type:text;not null" validate:"required"`

	Options       datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb" validate:"required,min=2"`
	CorrectAnswer int                         `json:"correct_answer" gorm:"not null" validate:"min=0"`
	Points        float64                     `json:"points" gorm:"default:1" validate:"min=0"`
	Explanation   *string                     `json:"explanation" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Test) TableName() string {
	return "tests"
}

func (Question) TableName() string {
	return "questions"
}
