package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sms-results-api/internal/models"
)

func TestGradeScaleRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeScaleRepository(db)

	mock.ExpectQuery("SELECT id, name, updated_at FROM grade_scales WHERE active = TRUE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "updated_at"}).
			AddRow("scale-1", "default", time.Now()))
	mock.ExpectQuery("SELECT min_percent, grade, remark FROM grade_scale_bands").
		WithArgs("scale-1").
		WillReturnRows(sqlmock.NewRows([]string{"min_percent", "grade", "remark"}).
			AddRow(70, "A", "Excellent").
			AddRow(0, "F", "Fail"))

	scale, err := repo.FindActive(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "default", scale.Name)
	require.Len(t, scale.Bands, 2)
	assert.Equal(t, 70, scale.Bands[0].MinPercent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeScaleRepositoryFindActiveNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeScaleRepository(db)

	mock.ExpectQuery("SELECT id, name, updated_at FROM grade_scales").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background())

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeScaleRepositoryUpsertReplacesScaleAndBands(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeScaleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE grade_scales SET active = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grade_scales").
		WithArgs(sqlmock.AnyArg(), "strict", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM grade_scale_bands").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO grade_scale_bands").
		WithArgs(sqlmock.AnyArg(), 80, "A", "Excellent").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO grade_scale_bands").
		WithArgs(sqlmock.AnyArg(), 0, "F", "Fail").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	scale := &models.GradeScale{
		Name: "strict",
		Bands: []models.GradeBand{
			{MinPercent: 80, Grade: "A", Remark: "Excellent"},
			{MinPercent: 0, Grade: "F", Remark: "Fail"},
		},
	}
	err := repo.Upsert(context.Background(), scale)

	require.NoError(t, err)
	assert.NotEmpty(t, scale.ID)
	assert.False(t, scale.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeScaleRepositoryUpsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeScaleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE grade_scales SET active = FALSE").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Upsert(context.Background(), &models.GradeScale{Name: "strict"})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
