package models

import "time"

// ComponentMaxima holds the admin-configured ceiling for each score column.
// A column with a maximum of 0 (or negative) is disabled and contributes
// nothing to totals.
type ComponentMaxima struct {
	FirstTest  float64 `db:"first_test_max" json:"first_test_max"`
	SecondTest float64 `db:"second_test_max" json:"second_test_max"`
	Assignment float64 `db:"assignment_max" json:"assignment_max"`
	Exam       float64 `db:"exam_max" json:"exam_max"`
}

// ObtainableTotal sums the enabled column maxima.
func (m ComponentMaxima) ObtainableTotal() int {
	total := 0
	for _, max := range []float64{m.FirstTest, m.SecondTest, m.Assignment, m.Exam} {
		if max > 0 {
			total += int(max + 0.5)
		}
	}
	return total
}

// RawComponentScores carries scores exactly as captured from the caller,
// before any coercion. Pointers distinguish "absent" from zero.
type RawComponentScores struct {
	FirstTest  *float64 `json:"first_test"`
	SecondTest *float64 `json:"second_test"`
	Assignment *float64 `json:"assignment"`
	Exam       *float64 `json:"exam"`
}

// ComponentScores holds normalized, integral component marks. Only the
// score normalizer produces these; nothing downstream re-validates them.
type ComponentScores struct {
	FirstTest  int `db:"first_test" json:"first_test"`
	SecondTest int `db:"second_test" json:"second_test"`
	Assignment int `db:"assignment" json:"assignment"`
	Exam       int `db:"exam" json:"exam"`
}

// ScoreTotals are the aggregator's derived sums.
type ScoreTotals struct {
	ContinuousTotal int `json:"continuous_total"`
	GrandTotal      int `json:"grand_total"`
}

// SubjectAssessment is one student's scored subject within a cohort.
// Raw scores are written by the caller through the normalizer; every
// derived field is replaced wholesale on each recompute.
type SubjectAssessment struct {
	ID        string `db:"id" json:"id"`
	StudentID string `db:"student_id" json:"student_id"`
	ClassID   string `db:"class_id" json:"class_id"`
	Subject   string `db:"subject" json:"subject"`
	Term      string `db:"term" json:"term"`
	Session   string `db:"session" json:"session"`

	Scores ComponentScores `json:"scores"`

	ContinuousTotal int     `db:"continuous_total" json:"continuous_total"`
	GrandTotal      int     `db:"grand_total" json:"grand_total"`
	ObtainableTotal int     `db:"obtainable_total" json:"obtainable_total"`
	ObtainedTotal   int     `db:"obtained_total" json:"obtained_total"`
	AveragePercent  int     `db:"average_percent" json:"average_percent"`
	Position        int     `db:"position" json:"position"`
	Grade           string  `db:"grade" json:"grade"`
	Remark          string  `db:"remark" json:"remark"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// PromotionStatus captures the end-of-session standing on a marks record.
type PromotionStatus string

const (
	PromotionStatusPending  PromotionStatus = "PENDING"
	PromotionStatusPromoted PromotionStatus = "PROMOTED"
	PromotionStatusRepeat   PromotionStatus = "REPEAT"
)

// StudentMarksRecord groups one student's subject assessments for a
// term+session. Created on first score entry, superseded (never deleted)
// by later term/session records.
type StudentMarksRecord struct {
	ID              string                       `db:"id" json:"id"`
	StudentID       string                       `db:"student_id" json:"student_id"`
	ClassID         string                       `db:"class_id" json:"class_id"`
	Term            string                       `db:"term" json:"term"`
	Session         string                       `db:"session" json:"session"`
	Subjects        map[string]SubjectAssessment `json:"subjects"`
	OverallAverage  float64                      `db:"overall_average" json:"overall_average"`
	OverallPosition int                          `db:"overall_position" json:"overall_position"`
	Status          PromotionStatus              `db:"status" json:"status"`
	NumberInClass   int                          `db:"number_in_class" json:"number_in_class"`
	CreatedAt       time.Time                    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time                    `db:"updated_at" json:"updated_at"`
}

// CumulativeSummary is a student's aggregated standing across approved
// results within a session. Derived on demand, never stored.
type CumulativeSummary struct {
	StudentID     string  `json:"student_id"`
	Session       string  `json:"session"`
	Average       float64 `json:"average"`
	Grade         string  `json:"grade"`
	Position      int     `json:"position"`
	TotalStudents int     `json:"total_students"`
}

// CohortFilter identifies the set of students ranked together.
type CohortFilter struct {
	ClassID string `json:"class_id"`
	Subject string `json:"subject"`
	Term    string `json:"term"`
	Session string `json:"session"`
}

// ApprovedSubjectRow is one approved subject percentage used by the
// cumulative summary reporting query.
type ApprovedSubjectRow struct {
	StudentID      string `db:"student_id"`
	Subject        string `db:"subject"`
	Term           string `db:"term"`
	AveragePercent int    `db:"average_percent"`
}
