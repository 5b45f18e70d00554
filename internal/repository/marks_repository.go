package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sms-results-api/internal/models"
)

// MarksRepository persists subject assessments and student marks records.
type MarksRepository struct {
	db *sqlx.DB
}

// NewMarksRepository creates a new marks repository.
func NewMarksRepository(db *sqlx.DB) *MarksRepository {
	return &MarksRepository{db: db}
}

// assessmentRow flattens SubjectAssessment for sqlx scanning.
type assessmentRow struct {
	ID              string    `db:"id"`
	StudentID       string    `db:"student_id"`
	ClassID         string    `db:"class_id"`
	Subject         string    `db:"subject"`
	Term            string    `db:"term"`
	Session         string    `db:"session"`
	FirstTest       int       `db:"first_test"`
	SecondTest      int       `db:"second_test"`
	Assignment      int       `db:"assignment"`
	Exam            int       `db:"exam"`
	ContinuousTotal int       `db:"continuous_total"`
	GrandTotal      int       `db:"grand_total"`
	ObtainableTotal int       `db:"obtainable_total"`
	ObtainedTotal   int       `db:"obtained_total"`
	AveragePercent  int       `db:"average_percent"`
	Position        int       `db:"position"`
	Grade           string    `db:"grade"`
	Remark          string    `db:"remark"`
	UpdatedAt       time.Time `db:"updated_at"`
}

const assessmentColumns = `id, student_id, class_id, subject, term, session,
        first_test, second_test, assignment, exam,
        continuous_total, grand_total, obtainable_total, obtained_total,
        average_percent, position, grade, remark, updated_at`

func (r assessmentRow) toModel() models.SubjectAssessment {
	return models.SubjectAssessment{
		ID:        r.ID,
		StudentID: r.StudentID,
		ClassID:   r.ClassID,
		Subject:   r.Subject,
		Term:      r.Term,
		Session:   r.Session,
		Scores: models.ComponentScores{
			FirstTest:  r.FirstTest,
			SecondTest: r.SecondTest,
			Assignment: r.Assignment,
			Exam:       r.Exam,
		},
		ContinuousTotal: r.ContinuousTotal,
		GrandTotal:      r.GrandTotal,
		ObtainableTotal: r.ObtainableTotal,
		ObtainedTotal:   r.ObtainedTotal,
		AveragePercent:  r.AveragePercent,
		Position:        r.Position,
		Grade:           r.Grade,
		Remark:          r.Remark,
		UpdatedAt:       r.UpdatedAt,
	}
}

func fromModel(a models.SubjectAssessment) assessmentRow {
	return assessmentRow{
		ID:              a.ID,
		StudentID:       a.StudentID,
		ClassID:         a.ClassID,
		Subject:         a.Subject,
		Term:            a.Term,
		Session:         a.Session,
		FirstTest:       a.Scores.FirstTest,
		SecondTest:      a.Scores.SecondTest,
		Assignment:      a.Scores.Assignment,
		Exam:            a.Scores.Exam,
		ContinuousTotal: a.ContinuousTotal,
		GrandTotal:      a.GrandTotal,
		ObtainableTotal: a.ObtainableTotal,
		ObtainedTotal:   a.ObtainedTotal,
		AveragePercent:  a.AveragePercent,
		Position:        a.Position,
		Grade:           a.Grade,
		Remark:          a.Remark,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ListCohort returns every assessment for a class/subject/term/session.
func (r *MarksRepository) ListCohort(ctx context.Context, filter models.CohortFilter) ([]models.SubjectAssessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM subject_assessments
        WHERE class_id = $1 AND subject = $2 AND term = $3 AND session = $4
        ORDER BY position, student_id`, assessmentColumns)
	var rows []assessmentRow
	if err := r.db.SelectContext(ctx, &rows, query, filter.ClassID, filter.Subject, filter.Term, filter.Session); err != nil {
		return nil, fmt.Errorf("list cohort: %w", err)
	}
	assessments := make([]models.SubjectAssessment, 0, len(rows))
	for _, row := range rows {
		assessments = append(assessments, row.toModel())
	}
	return assessments, nil
}

// ListByStudent returns every subject assessment a student holds for a
// term+session.
func (r *MarksRepository) ListByStudent(ctx context.Context, studentID, term, session string) ([]models.SubjectAssessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM subject_assessments
        WHERE student_id = $1 AND term = $2 AND session = $3
        ORDER BY subject`, assessmentColumns)
	var rows []assessmentRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, term, session); err != nil {
		return nil, fmt.Errorf("list student assessments: %w", err)
	}
	assessments := make([]models.SubjectAssessment, 0, len(rows))
	for _, row := range rows {
		assessments = append(assessments, row.toModel())
	}
	return assessments, nil
}

// SaveCohort upserts a recomputed cohort in one transaction so a ranking is
// never half-written.
func (r *MarksRepository) SaveCohort(ctx context.Context, assessments []models.SubjectAssessment) error {
	if len(assessments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO subject_assessments (id, student_id, class_id, subject, term, session,
            first_test, second_test, assignment, exam,
            continuous_total, grand_total, obtainable_total, obtained_total,
            average_percent, position, grade, remark, updated_at)
        VALUES (:id, :student_id, :class_id, :subject, :term, :session,
            :first_test, :second_test, :assignment, :exam,
            :continuous_total, :grand_total, :obtainable_total, :obtained_total,
            :average_percent, :position, :grade, :remark, :updated_at)
        ON CONFLICT (student_id, class_id, subject, term, session)
        DO UPDATE SET first_test = EXCLUDED.first_test,
            second_test = EXCLUDED.second_test,
            assignment = EXCLUDED.assignment,
            exam = EXCLUDED.exam,
            continuous_total = EXCLUDED.continuous_total,
            grand_total = EXCLUDED.grand_total,
            obtainable_total = EXCLUDED.obtainable_total,
            obtained_total = EXCLUDED.obtained_total,
            average_percent = EXCLUDED.average_percent,
            position = EXCLUDED.position,
            grade = EXCLUDED.grade,
            remark = EXCLUDED.remark,
            updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range assessments {
		if assessments[i].ID == "" {
			assessments[i].ID = uuid.NewString()
		}
		assessments[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, fromModel(assessments[i])); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("save assessment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cohort: %w", err)
	}
	return nil
}

// UpsertRecordHeader creates or refreshes a student's marks record for a
// term+session. Records are never deleted; later terms create new rows.
func (r *MarksRepository) UpsertRecordHeader(ctx context.Context, record *models.StudentMarksRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = models.PromotionStatusPending
	}
	const query = `INSERT INTO student_marks_records (id, student_id, class_id, term, session,
            overall_average, overall_position, status, number_in_class, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :term, :session,
            :overall_average, :overall_position, :status, :number_in_class, :created_at, :updated_at)
        ON CONFLICT (student_id, term, session)
        DO UPDATE SET class_id = EXCLUDED.class_id,
            overall_average = EXCLUDED.overall_average,
            overall_position = EXCLUDED.overall_position,
            status = EXCLUDED.status,
            number_in_class = EXCLUDED.number_in_class,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert marks record: %w", err)
	}
	return nil
}

// ClassAverages returns each student's mean subject percentage for a
// class/term/session.
func (r *MarksRepository) ClassAverages(ctx context.Context, classID, term, session string) (map[string]float64, error) {
	const query = `SELECT student_id, AVG(average_percent) AS average
        FROM subject_assessments
        WHERE class_id = $1 AND term = $2 AND session = $3
        GROUP BY student_id`
	rows, err := r.db.QueryxContext(ctx, query, classID, term, session)
	if err != nil {
		return nil, fmt.Errorf("class averages: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	averages := make(map[string]float64)
	for rows.Next() {
		var studentID string
		var average float64
		if err := rows.Scan(&studentID, &average); err != nil {
			return nil, fmt.Errorf("scan class average: %w", err)
		}
		averages[studentID] = average
	}
	return averages, rows.Err()
}

// StudentClass resolves the class a student belongs to within a session.
func (r *MarksRepository) StudentClass(ctx context.Context, studentID, session string) (string, error) {
	const query = `SELECT class_id FROM subject_assessments
        WHERE student_id = $1 AND session = $2
        ORDER BY updated_at DESC LIMIT 1`
	var classID string
	if err := r.db.GetContext(ctx, &classID, query, studentID, session); err != nil {
		return "", err
	}
	return classID, nil
}

// ApprovedSubjectRows is the cumulative summary reporting query: every
// subject percentage in the class/session whose workflow record reached
// APPROVED.
func (r *MarksRepository) ApprovedSubjectRows(ctx context.Context, classID, session string) ([]models.ApprovedSubjectRow, error) {
	const query = `SELECT sa.student_id, sa.subject, sa.term, sa.average_percent
        FROM subject_assessments sa
        JOIN report_card_workflow w
            ON w.class_id = sa.class_id
            AND w.subject = sa.subject
            AND w.term = sa.term
            AND w.session = sa.session
            AND w.student_id = sa.student_id
        WHERE sa.class_id = $1 AND sa.session = $2 AND w.status = $3`
	var rows []models.ApprovedSubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, classID, session, models.WorkflowStatusApproved); err != nil {
		return nil, fmt.Errorf("approved subject rows: %w", err)
	}
	return rows, nil
}
