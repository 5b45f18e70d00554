package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sms-results-api/internal/models"
)

func scrapeMetrics(m *MetricsService) string {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(w, req)
	return w.Body.String()
}

func TestScoreEntryObservesRecomputeDuration(t *testing.T) {
	metrics := NewMetricsService()
	marks := newMockMarksRepo()
	grades := NewGradeScaleService(&mockGradeScaleRepo{}, nil)
	svc := NewResultService(marks, &mockWorkflowStatus{status: models.WorkflowStatusDraft}, grades, defaultMaxima(), metrics, nil, nil)

	_, err := svc.EnterScores(context.Background(), scoresRequest("s-1", 18, 17, 16, 35))
	require.NoError(t, err)

	assert.Contains(t, scrapeMetrics(metrics), "cohort_recompute_duration_seconds_count 1")
}

func TestSummaryCacheLookupsCounted(t *testing.T) {
	metrics := NewMetricsService()
	repo := &mockSummaryRepo{
		classByStudent: map[string]string{"s-1": "jss1a"},
		approved:       []models.ApprovedSubjectRow{approvedRow("s-1", "Mathematics", "first", 86)},
	}
	grades := NewGradeScaleService(&mockGradeScaleRepo{}, nil)
	svc := NewSummaryService(repo, grades, newMockSummaryCache(), time.Minute, metrics, nil)
	ctx := context.Background()

	_, err := svc.Summarize(ctx, "s-1", "2025/2026")
	require.NoError(t, err)
	_, err = svc.Summarize(ctx, "s-1", "2025/2026")
	require.NoError(t, err)

	body := scrapeMetrics(metrics)
	assert.Contains(t, body, "summary_cache_misses_total 1")
	assert.Contains(t, body, "summary_cache_hits_total 1")
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService

	m.ObserveRecompute(time.Millisecond)
	m.CountSummaryCache(true)
	m.CountWorkflowTransition("APPROVED")
	m.ObserveHTTPRequest(http.MethodGet, "/results/cohort", http.StatusOK, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
