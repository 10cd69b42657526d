package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/scoring-service/internal/models"
)

func intPtr(v int) *int { return &v }

// buildQuestions returns n single-point questions where option 0 is always
// correct, cycling through subjects and difficulties.
func buildQuestions(n int) []models.Question {
	subjects := []models.Subject{models.SubjectPhysics, models.SubjectChemistry, models.SubjectMathematics}
	difficulties := []models.DifficultyLevel{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard}
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			ID:            uint(i + 1),
			Order:         i,
			Subject:       subjects[i%len(subjects)],
			Difficulty:    difficulties[i%len(difficulties)],
			CorrectAnswer: 0,
			Points:        1,
		}
	}
	return questions
}

func TestScore_CountsAndPercent(t *testing.T) {
	questions := buildQuestions(10)

	// 7 correct, 2 incorrect, 1 skipped.
	answers := make([]models.AnswerRecord, 10)
	for i := 0; i < 7; i++ {
		answers[i] = models.AnswerRecord{Selected: intPtr(0)}
	}
	answers[7] = models.AnswerRecord{Selected: intPtr(1)}
	answers[8] = models.AnswerRecord{Selected: intPtr(2)}
	answers[9] = models.AnswerRecord{Selected: nil}

	result, outcomes, err := Score(questions, answers, Options{})
	require.NoError(t, err)

	assert.Equal(t, 7, result.CorrectCount)
	assert.Equal(t, 2, result.IncorrectCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, 7.0, result.Score)
	assert.Equal(t, 70.0, result.ScorePercent)
	assert.Len(t, outcomes, 10)

	// Derived results for the same attempt.
	assert.Equal(t, BadgeAchiever, Badge(result.ScorePercent))
	assert.Equal(t, 140, Coins(result.ScorePercent, nil))
}

func TestScore_CountsSumToTotal(t *testing.T) {
	questions := buildQuestions(6)
	cases := []struct {
		name    string
		answers []models.AnswerRecord
	}{
		{"all skipped", make([]models.AnswerRecord, 6)},
		{"all correct", []models.AnswerRecord{
			{Selected: intPtr(0)}, {Selected: intPtr(0)}, {Selected: intPtr(0)},
			{Selected: intPtr(0)}, {Selected: intPtr(0)}, {Selected: intPtr(0)},
		}},
		{"mixed", []models.AnswerRecord{
			{Selected: intPtr(0)}, {Selected: intPtr(3)}, {Selected: nil},
			{Selected: intPtr(0)}, {Selected: nil}, {Selected: intPtr(2)},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, _, err := Score(questions, tc.answers, Options{})
			require.NoError(t, err)
			assert.Equal(t, len(questions), result.CorrectCount+result.IncorrectCount+result.SkippedCount)
			assert.GreaterOrEqual(t, result.ScorePercent, 0.0)
			assert.LessOrEqual(t, result.ScorePercent, 100.0)
		})
	}
}

func TestScore_MalformedSubmission(t *testing.T) {
	questions := buildQuestions(5)

	_, _, err := Score(questions, make([]models.AnswerRecord, 4), Options{})
	assert.ErrorIs(t, err, ErrMalformedSubmission)

	_, _, err = Score(questions, make([]models.AnswerRecord, 6), Options{})
	assert.ErrorIs(t, err, ErrMalformedSubmission)

	_, _, err = Score(nil, nil, Options{})
	assert.ErrorIs(t, err, ErrMalformedSubmission)
}

func TestScore_QuestionWeights(t *testing.T) {
	questions := buildQuestions(2)
	questions[0].Points = 3
	questions[1].Points = 1

	answers := []models.AnswerRecord{
		{Selected: intPtr(0)}, // correct, weight 3
		{Selected: intPtr(1)}, // incorrect
	}

	result, _, err := Score(questions, answers, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, result.Score)
	assert.Equal(t, 75.0, result.ScorePercent)
}

func TestScore_NegativeMarking(t *testing.T) {
	questions := buildQuestions(4)

	answers := []models.AnswerRecord{
		{Selected: intPtr(0)}, // correct
		{Selected: intPtr(1)},
		{Selected: intPtr(1)},
		{Selected: intPtr(1)},
	}

	result, _, err := Score(questions, answers, Options{NegativeMarking: true, Penalty: 0.25})
	require.NoError(t, err)
	assert.Equal(t, 0.25, result.Score)
	assert.Equal(t, 6.3, result.ScorePercent)

	// The raw score floors at zero, it never goes negative.
	result, _, err = Score(questions, answers, Options{NegativeMarking: true, Penalty: 2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 0.0, result.ScorePercent)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 33.3, Round1(100.0/3))
	assert.Equal(t, 66.7, Round1(200.0/3))
	assert.Equal(t, 70.0, Round1(70))
}
