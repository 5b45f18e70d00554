package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sms-results-api/internal/models"
)

var workflowColumnList = []string{
	"id", "teacher_id", "class_id", "subject", "term", "session",
	"student_id", "status", "message", "submitted_at", "reviewed_at",
}

func workflowMockRow(studentID string, status models.WorkflowStatus) []driverValue {
	return []driverValue{
		"id-" + studentID, "t-1", "jss1a", "Mathematics", "first", "2025/2026",
		studentID, string(status), "", time.Now(), nil,
	}
}

func workflowTestKey() models.WorkflowKey {
	return models.WorkflowKey{
		TeacherID: "t-1", ClassID: "jss1a", Subject: "Mathematics", Term: "first", Session: "2025/2026",
	}
}

func TestWorkflowRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	rows := sqlmock.NewRows(workflowColumnList).
		AddRow(workflowMockRow("s-1", models.WorkflowStatusPending)...)
	mock.ExpectQuery(regexp.QuoteMeta("AND teacher_id = $1 AND class_id = $2 AND status IN ($3,$4)")).
		WithArgs("t-1", "jss1a", string(models.WorkflowStatusPending), string(models.WorkflowStatusRevoked)).
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), models.WorkflowFilter{
		TeacherID: "t-1",
		ClassID:   "jss1a",
		Status:    []models.WorkflowStatus{models.WorkflowStatusPending, models.WorkflowStatusRevoked},
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.WorkflowStatusPending, records[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryListUnfiltered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	rows := sqlmock.NewRows(workflowColumnList).
		AddRow(workflowMockRow("s-1", models.WorkflowStatusApproved)...).
		AddRow(workflowMockRow("s-2", models.WorkflowStatusApproved)...)
	mock.ExpectQuery("SELECT (.+) FROM report_card_workflow WHERE 1=1").
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), models.WorkflowFilter{})

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryGetByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	rows := sqlmock.NewRows(workflowColumnList).
		AddRow(workflowMockRow("s-1", models.WorkflowStatusPending)...)
	mock.ExpectQuery("SELECT (.+) FROM report_card_workflow").
		WithArgs("t-1", "jss1a", "Mathematics", "first", "2025/2026").
		WillReturnRows(rows)

	records, err := repo.GetByKey(context.Background(), workflowTestKey())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, workflowTestKey(), records[0].Key())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryReplaceBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM report_card_workflow").
		WithArgs("t-1", "jss1a", "Mathematics", "first", "2025/2026").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO report_card_workflow").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO report_card_workflow").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	records := []models.ReportCardWorkflowRecord{
		{TeacherID: "t-1", ClassID: "jss1a", Subject: "Mathematics", Term: "first", Session: "2025/2026", StudentID: "s-1", Status: models.WorkflowStatusPending, SubmittedAt: time.Now()},
		{TeacherID: "t-1", ClassID: "jss1a", Subject: "Mathematics", Term: "first", Session: "2025/2026", StudentID: "s-2", Status: models.WorkflowStatusPending, SubmittedAt: time.Now()},
	}
	err := repo.ReplaceBatch(context.Background(), workflowTestKey(), records)

	require.NoError(t, err)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEmpty(t, records[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryReplaceBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM report_card_workflow").
		WithArgs("t-1", "jss1a", "Mathematics", "first", "2025/2026").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO report_card_workflow").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.ReplaceBatch(context.Background(), workflowTestKey(), []models.ReportCardWorkflowRecord{
		{TeacherID: "t-1", ClassID: "jss1a", Subject: "Mathematics", Term: "first", Session: "2025/2026", StudentID: "s-1", Status: models.WorkflowStatusPending},
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryDeleteByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	mock.ExpectExec("DELETE FROM report_card_workflow").
		WithArgs("t-1", "jss1a", "Mathematics", "first", "2025/2026").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteByKey(context.Background(), workflowTestKey()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
