package scoring

import "github.com/prepwise/scoring-service/internal/models"

// AnalyzeChanges counts questions whose selection was revised during the
// attempt and how many of those revisions landed on the correct answer.
// Change history is a best-effort enrichment: when no record carries a
// history the summary is simply zero, never an error.
func AnalyzeChanges(questions []models.Question, answers []models.AnswerRecord) models.ChangedAnswersSummary {
	var summary models.ChangedAnswersSummary
	if len(answers) != len(questions) {
		return summary
	}

	for i, ans := range answers {
		if len(ans.History) <= 1 {
			continue
		}
		summary.TotalChanged++
		final := ans.History[len(ans.History)-1]
		if final == questions[i].CorrectAnswer {
			summary.CorrectAfterChange++
		}
	}
	return summary
}
