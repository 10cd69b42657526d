package scoring

import "math"

// Badge tiers, coarse score bands rendered on every results surface.
const (
	BadgeHighAchiever = "High Achiever"
	BadgeAchiever     = "Achiever"
	BadgeKeepGoing    = "Keep Going!"
)

// Percentile ranks a score percent against the cohort's score percents:
// the fraction of cohort attempts scoring strictly lower, with ties counted
// at half weight, scaled to 0-100. With no cohort data it falls back to the
// complement of the score percent.
func Percentile(scorePercent float64, cohort []float64) float64 {
	if len(cohort) == 0 {
		return Round1(100 - scorePercent)
	}

	var below, ties float64
	for _, s := range cohort {
		switch {
		case s < scorePercent:
			below++
		case s == scorePercent:
			ties++
		}
	}
	return Round1((below + ties/2) / float64(len(cohort)) * 100)
}

// Badge maps a score percent to its tier label.
func Badge(scorePercent float64) string {
	switch {
	case scorePercent >= 80:
		return BadgeHighAchiever
	case scorePercent >= 50:
		return BadgeAchiever
	default:
		return BadgeKeepGoing
	}
}

// Coins computes the coin reward for an attempt: twice the score percent,
// rounded, floored at zero, optionally capped by the test.
func Coins(scorePercent float64, cap *int) int {
	coins := int(math.Round(scorePercent * 2))
	if coins < 0 {
		coins = 0
	}
	if cap != nil && coins > *cap {
		coins = *cap
	}
	return coins
}
