package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sms-results-api/internal/models"
)

func cohortOf(totals ...int) []*models.SubjectAssessment {
	cohort := make([]*models.SubjectAssessment, 0, len(totals))
	for i, total := range totals {
		cohort = append(cohort, &models.SubjectAssessment{
			StudentID:       string(rune('a' + i)),
			GrandTotal:      total,
			ObtainableTotal: 100,
		})
	}
	return cohort
}

func TestRankCohortOrdersByTotalDescending(t *testing.T) {
	cohort := cohortOf(55, 86, 70)

	RankCohort(cohort)

	assert.Equal(t, 86, cohort[0].GrandTotal)
	assert.Equal(t, 1, cohort[0].Position)
	assert.Equal(t, 70, cohort[1].GrandTotal)
	assert.Equal(t, 2, cohort[1].Position)
	assert.Equal(t, 55, cohort[2].GrandTotal)
	assert.Equal(t, 3, cohort[2].Position)
}

func TestRankCohortTiesTakeSequentialPositions(t *testing.T) {
	cohort := cohortOf(80, 80, 80, 65)

	RankCohort(cohort)

	positions := make([]int, 0, len(cohort))
	for _, a := range cohort {
		positions = append(positions, a.Position)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, positions)

	// Stable sort keeps tied students in input order.
	assert.Equal(t, "a", cohort[0].StudentID)
	assert.Equal(t, "b", cohort[1].StudentID)
	assert.Equal(t, "c", cohort[2].StudentID)
}

func TestRankCohortLateTieRanksAheadOfEarlierEqualTotal(t *testing.T) {
	cohort := cohortOf(92, 82, 70)
	// New student with the same total goes in ahead of the existing 82.
	cohort = append(cohort[:1], append([]*models.SubjectAssessment{{
		StudentID:       "z",
		GrandTotal:      82,
		ObtainableTotal: 100,
	}}, cohort[1:]...)...)

	RankCohort(cohort)

	assert.Equal(t, []string{"a", "z", "b", "c"}, []string{
		cohort[0].StudentID, cohort[1].StudentID, cohort[2].StudentID, cohort[3].StudentID,
	})
	assert.Equal(t, 2, cohort[1].Position)
	assert.Equal(t, 3, cohort[2].Position)
}

func TestRankCohortUsesFreshGrandTotalOverStaleObtained(t *testing.T) {
	edited := &models.SubjectAssessment{StudentID: "edited", ObtainedTotal: 70, GrandTotal: 99, ObtainableTotal: 100}
	other := &models.SubjectAssessment{StudentID: "other", ObtainedTotal: 86, GrandTotal: 86, ObtainableTotal: 100}

	RankCohort([]*models.SubjectAssessment{edited, other})

	assert.Equal(t, 1, edited.Position)
	assert.Equal(t, 99, edited.ObtainedTotal)
	assert.Equal(t, 2, other.Position)
}

func TestRankCohortLegacyRowsRankOnObtainedTotal(t *testing.T) {
	legacy := &models.SubjectAssessment{StudentID: "legacy", ObtainedTotal: 90}
	scored := &models.SubjectAssessment{StudentID: "scored", GrandTotal: 80, ObtainableTotal: 100}

	RankCohort([]*models.SubjectAssessment{scored, legacy})

	assert.Equal(t, 1, legacy.Position)
	assert.Equal(t, 90, legacy.ObtainedTotal)
	assert.Equal(t, 2, scored.Position)
}

func TestRankCohortRecomputesDerivedFields(t *testing.T) {
	cohort := cohortOf(86)
	cohort[0].ObtainedTotal = 12
	cohort[0].AveragePercent = 3

	RankCohort(cohort)

	assert.Equal(t, 86, cohort[0].ObtainedTotal)
	assert.Equal(t, 86, cohort[0].AveragePercent)
}

func TestRankCohortEmpty(t *testing.T) {
	assert.Empty(t, RankCohort(nil))
	assert.Empty(t, RankCohort([]*models.SubjectAssessment{}))
}

func TestRankCohortPositionsFormPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		size := rng.Intn(30) + 1
		cohort := make([]*models.SubjectAssessment, 0, size)
		for i := 0; i < size; i++ {
			cohort = append(cohort, &models.SubjectAssessment{
				StudentID:       string(rune('a' + i%26)),
				GrandTotal:      rng.Intn(101),
				ObtainableTotal: 100,
			})
		}

		RankCohort(cohort)

		seen := make(map[int]bool, size)
		for i, a := range cohort {
			require.False(t, seen[a.Position], "duplicate position %d", a.Position)
			seen[a.Position] = true
			require.GreaterOrEqual(t, a.Position, 1)
			require.LessOrEqual(t, a.Position, size)
			if i > 0 {
				require.GreaterOrEqual(t, cohort[i-1].GrandTotal, a.GrandTotal)
			}
		}
	}
}
