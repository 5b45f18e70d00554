package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sms-results-api/internal/models"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
)

type summaryRepo interface {
	StudentClass(ctx context.Context, studentID, session string) (string, error)
	ApprovedSubjectRows(ctx context.Context, classID, session string) ([]models.ApprovedSubjectRow, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// SummaryService computes a student's cumulative standing across the
// approved results of a session. Summaries are derived, never stored;
// Redis only caches them and the cache is flushed on every workflow change.
type SummaryService struct {
	repo     summaryRepo
	grades   classifier
	cache    summaryCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.SugaredLogger
}

// NewSummaryService constructs the cumulative summary calculator.
func NewSummaryService(repo summaryRepo, grades classifier, cache summaryCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &SummaryService{
		repo:     repo,
		grades:   grades,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger.Sugar(),
	}
}

// Summarize aggregates a student's approved results within a session into
// an average, grade and cross-sectional class position. It returns nil (not
// an error) when the student has no approved results yet: callers must
// treat that as "pending".
func (s *SummaryService) Summarize(ctx context.Context, studentID, session string) (*models.CumulativeSummary, error) {
	if studentID == "" || session == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and session are required")
	}

	cacheKey := summaryCacheKey(session, studentID)
	if s.cache != nil {
		var cached models.CumulativeSummary
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.metrics.CountSummaryCache(true)
			return &cached, nil
		}
		s.metrics.CountSummaryCache(false)
	}

	classID, err := s.repo.StudentClass(ctx, studentID, session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student class")
	}

	rows, err := s.repo.ApprovedSubjectRows(ctx, classID, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved results")
	}

	averages := averageByStudent(rows)
	studentAvg, ok := averages[studentID]
	if !ok {
		return nil, nil
	}

	band, err := s.grades.Classify(ctx, int(math.Round(studentAvg)), 100)
	if err != nil {
		return nil, err
	}
	position, total := standing(studentID, averages)

	summary := &models.CumulativeSummary{
		StudentID:     studentID,
		Session:       session,
		Average:       studentAvg,
		Grade:         band.Grade,
		Position:      position,
		TotalStudents: total,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warnw("failed to cache summary", "key", cacheKey, "error", err)
		}
	}
	return summary, nil
}

// InvalidateSession drops cached summaries for a session.
func (s *SummaryService) InvalidateSession(ctx context.Context, session string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("summary:%s:*", session)); err != nil {
		s.logger.Warnw("failed to invalidate summary cache", "session", session, "error", err)
	}
}

// InvalidateAll drops every cached summary. Wired to workflow change
// notifications: any approval or revocation can change any summary.
func (s *SummaryService) InvalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "summary:*"); err != nil {
		s.logger.Warnw("failed to invalidate summary cache", "error", err)
	}
}

func summaryCacheKey(session, studentID string) string {
	return fmt.Sprintf("summary:%s:%s", session, studentID)
}

// averageByStudent folds approved per-subject percentages into one average
// per student, rounded to two decimals.
func averageByStudent(rows []models.ApprovedSubjectRow) map[string]float64 {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, row := range rows {
		sums[row.StudentID] += row.AveragePercent
		counts[row.StudentID]++
	}
	averages := make(map[string]float64, len(sums))
	for id, sum := range sums {
		averages[id] = math.Round(float64(sum)/float64(counts[id])*100) / 100
	}
	return averages
}
