package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sms-results-api/internal/models"
	"github.com/noah-isme/sms-results-api/internal/service"
)

type summaryRepoStub struct {
	classID  string
	approved []models.ApprovedSubjectRow
}

func (s *summaryRepoStub) StudentClass(ctx context.Context, studentID, session string) (string, error) {
	if s.classID == "" {
		return "", sql.ErrNoRows
	}
	return s.classID, nil
}

func (s *summaryRepoStub) ApprovedSubjectRows(ctx context.Context, classID, session string) ([]models.ApprovedSubjectRow, error) {
	return s.approved, nil
}

type gradeScaleRepoStub struct{}

func (s *gradeScaleRepoStub) FindActive(ctx context.Context) (*models.GradeScale, error) {
	return nil, sql.ErrNoRows
}

func (s *gradeScaleRepoStub) Upsert(ctx context.Context, scale *models.GradeScale) error {
	return nil
}

func newSummaryTestHandler(repo *summaryRepoStub) *SummaryHandler {
	grades := service.NewGradeScaleService(&gradeScaleRepoStub{}, nil)
	return NewSummaryHandler(service.NewSummaryService(repo, grades, nil, time.Minute, nil, nil))
}

func summaryRequest(handler *SummaryHandler, studentID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/results/summary/"+studentID+"?session=2025/2026", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "studentId", Value: studentID}}
	handler.Summarize(c)
	return w
}

func TestSummaryHandlerReturnsSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSummaryTestHandler(&summaryRepoStub{
		classID: "jss1a",
		approved: []models.ApprovedSubjectRow{
			{StudentID: "s-1", Subject: "Mathematics", Term: "first", AveragePercent: 86},
		},
	})

	w := summaryRequest(handler, "s-1")

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.CumulativeSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 86.0, envelope.Data.Average)
	assert.Equal(t, "A", envelope.Data.Grade)
}

func TestSummaryHandlerPendingBeforeApproval(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSummaryTestHandler(&summaryRepoStub{classID: "jss1a"})

	w := summaryRequest(handler, "s-1")

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data["pending"])
}

func TestSummaryHandlerPendingForUnknownStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSummaryTestHandler(&summaryRepoStub{})

	w := summaryRequest(handler, "ghost")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pending")
}
