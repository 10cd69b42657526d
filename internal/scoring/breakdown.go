package scoring

import (
	"sort"

	"github.com/prepwise/scoring-service/internal/models"
)

const weakAreaThreshold = 50.0

type groupTally struct {
	correct   int
	total     int
	attempted int
}

func (g groupTally) accuracy() float64 {
	if g.total == 0 {
		return 0
	}
	return Round1(float64(g.correct) / float64(g.total) * 100)
}

// SubjectBreakdown aggregates outcomes per subject. Accuracy is 0 (never
// NaN) for an empty group. Output is sorted by subject name so repeated
// computations over the same attempt are byte-stable.
func SubjectBreakdown(outcomes []Outcome) []models.SubjectAnalytic {
	tallies := make(map[models.Subject]*groupTally)
	for _, o := range outcomes {
		t, ok := tallies[o.Subject]
		if !ok {
			t = &groupTally{}
			tallies[o.Subject] = t
		}
		t.total++
		if o.Status != StatusSkipped {
			t.attempted++
		}
		if o.Status == StatusCorrect {
			t.correct++
		}
	}

	analytics := make([]models.SubjectAnalytic, 0, len(tallies))
	for subject, t := range tallies {
		analytics = append(analytics, models.SubjectAnalytic{
			Subject:  subject,
			Correct:  t.correct,
			Total:    t.total,
			Accuracy: t.accuracy(),
		})
	}
	sort.Slice(analytics, func(i, j int) bool { return analytics[i].Subject < analytics[j].Subject })
	return analytics
}

// DifficultyBreakdown aggregates outcomes per difficulty level, ordered
// Easy, Medium, Hard.
func DifficultyBreakdown(outcomes []Outcome) []models.DifficultyAnalytic {
	order := []models.DifficultyLevel{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard}
	tallies := make(map[models.DifficultyLevel]*groupTally)
	for _, o := range outcomes {
		t, ok := tallies[o.Difficulty]
		if !ok {
			t = &groupTally{}
			tallies[o.Difficulty] = t
		}
		t.total++
		if o.Status == StatusCorrect {
			t.correct++
		}
	}

	analytics := make([]models.DifficultyAnalytic, 0, len(tallies))
	for _, level := range order {
		t, ok := tallies[level]
		if !ok {
			continue
		}
		analytics = append(analytics, models.DifficultyAnalytic{
			Difficulty: level,
			Correct:    t.correct,
			Total:      t.total,
			Accuracy:   t.accuracy(),
		})
	}
	return analytics
}

// WeakAndStrongAreas splits subjects by the 50% accuracy threshold.
// Subjects where the student attempted no questions land in neither list.
func WeakAndStrongAreas(outcomes []Outcome) (weak, strong []models.Subject) {
	tallies := make(map[models.Subject]*groupTally)
	var subjects []models.Subject
	for _, o := range outcomes {
		t, ok := tallies[o.Subject]
		if !ok {
			t = &groupTally{}
			tallies[o.Subject] = t
			subjects = append(subjects, o.Subject)
		}
		t.total++
		if o.Status != StatusSkipped {
			t.attempted++
		}
		if o.Status == StatusCorrect {
			t.correct++
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })

	for _, subject := range subjects {
		t := tallies[subject]
		if t.attempted == 0 {
			continue
		}
		if t.accuracy() < weakAreaThreshold {
			weak = append(weak, subject)
		} else {
			strong = append(strong, subject)
		}
	}
	return weak, strong
}
