package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sms-results-api/internal/models"
)

// WorkflowRepository persists report-card workflow records. The service
// layer owns transition legality; this layer only guarantees that a batch
// replace is atomic and that one current record exists per (key, student).
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

const workflowColumns = `id, teacher_id, class_id, subject, term, session, student_id, status, message, submitted_at, reviewed_at`

// List returns workflow records matching the filter.
func (r *WorkflowRepository) List(ctx context.Context, filter models.WorkflowFilter) ([]models.ReportCardWorkflowRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_card_workflow WHERE 1=1`, workflowColumns)
	var args []interface{}
	add := func(column, value string) {
		if value != "" {
			query += fmt.Sprintf(" AND %s = $%d", column, len(args)+1)
			args = append(args, value)
		}
	}
	add("teacher_id", filter.TeacherID)
	add("class_id", filter.ClassID)
	add("subject", filter.Subject)
	add("term", filter.Term)
	add("session", filter.Session)
	add("student_id", filter.StudentID)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, string(status))
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}
	query += " ORDER BY submitted_at DESC, student_id"

	var records []models.ReportCardWorkflowRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list workflow records: %w", err)
	}
	return records, nil
}

// GetByKey returns the records sharing one workflow key.
func (r *WorkflowRepository) GetByKey(ctx context.Context, key models.WorkflowKey) ([]models.ReportCardWorkflowRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_card_workflow
        WHERE teacher_id = $1 AND class_id = $2 AND subject = $3 AND term = $4 AND session = $5
        ORDER BY student_id`, workflowColumns)
	var records []models.ReportCardWorkflowRecord
	if err := r.db.SelectContext(ctx, &records, query, key.TeacherID, key.ClassID, key.Subject, key.Term, key.Session); err != nil {
		return nil, fmt.Errorf("get workflow records: %w", err)
	}
	return records, nil
}

// ReplaceBatch atomically swaps the record set for a key so a student can
// never be simultaneously pending and approved under the same key.
func (r *WorkflowRepository) ReplaceBatch(ctx context.Context, key models.WorkflowKey, records []models.ReportCardWorkflowRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const deleteQuery = `DELETE FROM report_card_workflow
        WHERE teacher_id = $1 AND class_id = $2 AND subject = $3 AND term = $4 AND session = $5`
	if _, err := tx.ExecContext(ctx, deleteQuery, key.TeacherID, key.ClassID, key.Subject, key.Term, key.Session); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear workflow batch: %w", err)
	}
	const insertQuery = `INSERT INTO report_card_workflow (id, teacher_id, class_id, subject, term, session, student_id, status, message, submitted_at, reviewed_at)
        VALUES (:id, :teacher_id, :class_id, :subject, :term, :session, :student_id, :status, :message, :submitted_at, :reviewed_at)`
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, insertQuery, records[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert workflow record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit workflow batch: %w", err)
	}
	return nil
}

// DeleteByKey removes every record for a key, returning it to the DRAFT
// default.
func (r *WorkflowRepository) DeleteByKey(ctx context.Context, key models.WorkflowKey) error {
	const query = `DELETE FROM report_card_workflow
        WHERE teacher_id = $1 AND class_id = $2 AND subject = $3 AND term = $4 AND session = $5`
	if _, err := r.db.ExecContext(ctx, query, key.TeacherID, key.ClassID, key.Subject, key.Term, key.Session); err != nil {
		return fmt.Errorf("delete workflow batch: %w", err)
	}
	return nil
}
