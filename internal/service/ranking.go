package service

import (
	"sort"

	"github.com/noah-isme/sms-results-api/internal/models"
)

// RankCohort annotates every assessment in the cohort with its 1-based
// position, descending by grand total (obtained total for legacy rows
// without component scores). Ties are not merged: equal totals receive
// distinct sequential positions in original-array order, so the output
// positions always form the permutation 1..N.
//
// Alongside ranking, the average percent is recomputed and the obtained
// total is overwritten to equal the grand total, making ranking the single
// source of truth for "obtained". The function mutates and returns the same
// slice; it never persists.
func RankCohort(cohort []*models.SubjectAssessment) []*models.SubjectAssessment {
	if len(cohort) == 0 {
		return cohort
	}

	sort.SliceStable(cohort, func(i, j int) bool {
		return sortTotal(cohort[i]) > sortTotal(cohort[j])
	})

	for i, assessment := range cohort {
		assessment.Position = i + 1
		if assessment.GrandTotal != 0 {
			assessment.ObtainedTotal = assessment.GrandTotal
		}
		assessment.AveragePercent = Percentage(assessment.ObtainedTotal, assessment.ObtainableTotal)
	}

	return cohort
}

// sortTotal ranks on the freshly aggregated grand total so an edit takes
// effect on the first recompute; the persisted obtained total only counts
// for legacy rows that carry no component scores.
func sortTotal(a *models.SubjectAssessment) int {
	if a.GrandTotal != 0 {
		return a.GrandTotal
	}
	return a.ObtainedTotal
}
