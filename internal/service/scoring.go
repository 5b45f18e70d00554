package service

import (
	"math"

	"github.com/noah-isme/sms-results-api/internal/models"
)

// NormalizeScores coerces raw caller input into integral component marks.
// Invalid input degrades to 0, never to NaN: missing, non-finite and
// negative values read as 0; values at or above the column maximum clamp to
// the rounded maximum; anything else rounds to the nearest integer. A column
// whose configured maximum is 0 or negative is disabled and always yields 0.
func NormalizeScores(raw models.RawComponentScores, maxima models.ComponentMaxima) models.ComponentScores {
	return models.ComponentScores{
		FirstTest:  normalizeComponent(raw.FirstTest, maxima.FirstTest),
		SecondTest: normalizeComponent(raw.SecondTest, maxima.SecondTest),
		Assignment: normalizeComponent(raw.Assignment, maxima.Assignment),
		Exam:       normalizeComponent(raw.Exam, maxima.Exam),
	}
}

func normalizeComponent(value *float64, max float64) int {
	if max <= 0 || math.IsNaN(max) || math.IsInf(max, 0) {
		return 0
	}
	if value == nil {
		return 0
	}
	v := *value
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	if v >= max {
		return int(math.Round(max))
	}
	return int(math.Round(v))
}

// AggregateScores derives the continuous-assessment subtotal and grand total
// from normalized component marks. Pure; safe to call on every keystroke.
func AggregateScores(scores models.ComponentScores) models.ScoreTotals {
	continuous := scores.FirstTest + scores.SecondTest + scores.Assignment
	return models.ScoreTotals{
		ContinuousTotal: continuous,
		GrandTotal:      continuous + scores.Exam,
	}
}

// Percentage returns round(clamp(obtained/obtainable,0,1)*100). When the
// obtainable total is unknown (legacy records) the raw obtained value is
// returned so the classifier can grade it directly.
func Percentage(obtained, obtainable int) int {
	if obtainable <= 0 {
		return obtained
	}
	ratio := float64(obtained) / float64(obtainable)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return int(math.Round(ratio * 100))
}
