package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sms-results-api/internal/models"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
)

type mockSummaryRepo struct {
	classByStudent map[string]string
	approved       []models.ApprovedSubjectRow
	queries        int
}

func (m *mockSummaryRepo) StudentClass(ctx context.Context, studentID, session string) (string, error) {
	m.queries++
	classID, ok := m.classByStudent[studentID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return classID, nil
}

func (m *mockSummaryRepo) ApprovedSubjectRows(ctx context.Context, classID, session string) ([]models.ApprovedSubjectRow, error) {
	out := make([]models.ApprovedSubjectRow, len(m.approved))
	copy(out, m.approved)
	return out, nil
}

type mockSummaryCache struct {
	entries map[string][]byte
	sets    int
	hits    int
}

func newMockSummaryCache() *mockSummaryCache {
	return &mockSummaryCache{entries: make(map[string][]byte)}
}

func (m *mockSummaryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(raw, dest)
}

func (m *mockSummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.sets++
	return nil
}

func (m *mockSummaryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func approvedRow(studentID, subject, term string, percent int) models.ApprovedSubjectRow {
	return models.ApprovedSubjectRow{StudentID: studentID, Subject: subject, Term: term, AveragePercent: percent}
}

func newSummaryService(repo *mockSummaryRepo, cache *mockSummaryCache) *SummaryService {
	grades := NewGradeScaleService(&mockGradeScaleRepo{}, nil)
	return NewSummaryService(repo, grades, cache, time.Minute, nil, nil)
}

func TestSummarizeAveragesApprovedResults(t *testing.T) {
	repo := &mockSummaryRepo{
		classByStudent: map[string]string{"s-1": "jss1a", "s-2": "jss1a"},
		approved: []models.ApprovedSubjectRow{
			approvedRow("s-1", "Mathematics", "first", 86),
			approvedRow("s-1", "English", "first", 70),
			approvedRow("s-1", "Mathematics", "second", 90),
			approvedRow("s-2", "Mathematics", "first", 60),
		},
	}
	svc := newSummaryService(repo, newMockSummaryCache())

	summary, err := svc.Summarize(context.Background(), "s-1", "2025/2026")

	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "s-1", summary.StudentID)
	assert.Equal(t, "2025/2026", summary.Session)
	assert.Equal(t, 82.0, summary.Average)
	assert.Equal(t, "A", summary.Grade)
	assert.Equal(t, 1, summary.Position)
	assert.Equal(t, 2, summary.TotalStudents)
}

func TestSummarizeNilWhileNothingApproved(t *testing.T) {
	repo := &mockSummaryRepo{classByStudent: map[string]string{"s-1": "jss1a"}}
	svc := newSummaryService(repo, newMockSummaryCache())

	summary, err := svc.Summarize(context.Background(), "s-1", "2025/2026")

	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestSummarizeNilForUnknownStudent(t *testing.T) {
	svc := newSummaryService(&mockSummaryRepo{}, newMockSummaryCache())

	summary, err := svc.Summarize(context.Background(), "ghost", "2025/2026")

	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestSummarizeRequiresScope(t *testing.T) {
	svc := newSummaryService(&mockSummaryRepo{}, newMockSummaryCache())

	_, err := svc.Summarize(context.Background(), "", "2025/2026")
	require.Error(t, err)

	_, err = svc.Summarize(context.Background(), "s-1", "")
	require.Error(t, err)
}

func TestSummarizeServesFromCache(t *testing.T) {
	repo := &mockSummaryRepo{
		classByStudent: map[string]string{"s-1": "jss1a"},
		approved:       []models.ApprovedSubjectRow{approvedRow("s-1", "Mathematics", "first", 86)},
	}
	cache := newMockSummaryCache()
	svc := newSummaryService(repo, cache)
	ctx := context.Background()

	first, err := svc.Summarize(ctx, "s-1", "2025/2026")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, repo.queries)

	second, err := svc.Summarize(ctx, "s-1", "2025/2026")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, repo.queries, "cache hit must not query the repository")
	assert.Equal(t, first, second)
}

func TestInvalidateAllDropsCachedSummaries(t *testing.T) {
	repo := &mockSummaryRepo{
		classByStudent: map[string]string{"s-1": "jss1a"},
		approved:       []models.ApprovedSubjectRow{approvedRow("s-1", "Mathematics", "first", 86)},
	}
	cache := newMockSummaryCache()
	svc := newSummaryService(repo, cache)
	ctx := context.Background()

	_, err := svc.Summarize(ctx, "s-1", "2025/2026")
	require.NoError(t, err)
	require.NotEmpty(t, cache.entries)

	svc.InvalidateAll(ctx)
	assert.Empty(t, cache.entries)

	// Revocation scenario: the recomputed summary reflects the new data.
	repo.approved = []models.ApprovedSubjectRow{approvedRow("s-1", "Mathematics", "first", 40)}
	summary, err := svc.Summarize(ctx, "s-1", "2025/2026")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 40.0, summary.Average)
	assert.Equal(t, "E", summary.Grade)
}

func TestSummaryStandingAcrossClass(t *testing.T) {
	repo := &mockSummaryRepo{
		classByStudent: map[string]string{"s-1": "jss1a", "s-2": "jss1a", "s-3": "jss1a"},
		approved: []models.ApprovedSubjectRow{
			approvedRow("s-1", "Mathematics", "first", 70),
			approvedRow("s-2", "Mathematics", "first", 85),
			approvedRow("s-3", "Mathematics", "first", 55),
		},
	}
	svc := newSummaryService(repo, newMockSummaryCache())

	summary, err := svc.Summarize(context.Background(), "s-3", "2025/2026")

	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.Position)
	assert.Equal(t, 3, summary.TotalStudents)
}
