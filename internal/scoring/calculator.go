package scoring

import (
	"errors"
	"math"

	"github.com/prepwise/scoring-service/internal/models"
)

// ErrMalformedSubmission is returned when the answer slice does not line up
// 1:1 with the test's questions. The submission is rejected before any
// scoring work happens.
var ErrMalformedSubmission = errors.New("answer records do not match test questions")

type AnswerStatus string

const (
	StatusCorrect   AnswerStatus = "correct"
	StatusIncorrect AnswerStatus = "incorrect"
	StatusSkipped   AnswerStatus = "skipped"
)

// Outcome is the classification of a single answered position. It carries
// the question's grouping attributes so the breakdown pass does not need
// the test again.
type Outcome struct {
	QuestionID uint
	Subject    models.Subject
	Difficulty models.DifficultyLevel
	Status     AnswerStatus
	Selected   *int
	Correct    int
	TimeSpent  int
}

type ScoreResult struct {
	Score          float64 `json:"score"`
	ScorePercent   float64 `json:"score_percent"`
	CorrectCount   int     `json:"correct_count"`
	IncorrectCount int     `json:"incorrect_count"`
	SkippedCount   int     `json:"skipped_count"`
}

// Options carries test-level scoring configuration. NegativeMarking is off
// by default; when enabled each incorrect answer subtracts Penalty from the
// raw score before it is converted to a percentage, floored at zero.
type Options struct {
	NegativeMarking bool
	Penalty         float64
}

// Score grades a submission against the ordered question list. Answers must
// align 1:1 with questions or ErrMalformedSubmission is returned. Each
// question is worth its Points weight (1 when unset); there is no partial
// credit.
func Score(questions []models.Question, answers []models.AnswerRecord, opts Options) (*ScoreResult, []Outcome, error) {
	if len(questions) == 0 || len(answers) != len(questions) {
		return nil, nil, ErrMalformedSubmission
	}

	result := &ScoreResult{}
	outcomes := make([]Outcome, len(questions))
	var maxScore float64

	for i, q := range questions {
		ans := answers[i]
		weight := q.Points
		if weight <= 0 {
			weight = 1
		}
		maxScore += weight

		out := Outcome{
			QuestionID: q.ID,
			Subject:    q.Subject,
			Difficulty: q.Difficulty,
			Selected:   ans.Selected,
			Correct:    q.CorrectAnswer,
			TimeSpent:  ans.TimeSpent,
		}

		switch {
		case ans.Selected == nil:
			out.Status = StatusSkipped
			result.SkippedCount++
		case *ans.Selected == q.CorrectAnswer:
			out.Status = StatusCorrect
			result.CorrectCount++
			result.Score += weight
		default:
			out.Status = StatusIncorrect
			result.IncorrectCount++
			if opts.NegativeMarking {
				result.Score -= opts.Penalty
			}
		}
		outcomes[i] = out
	}

	if result.Score < 0 {
		result.Score = 0
	}
	// ScorePercent is weighted score over maximum weighted score, which
	// reduces to correct/total when every question carries one point.
	result.ScorePercent = Round1(result.Score / maxScore * 100)

	return result, outcomes, nil
}

// Round1 rounds to one decimal place, the precision score percentages are
// stored and compared at.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
