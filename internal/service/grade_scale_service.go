package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sms-results-api/internal/models"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
)

type gradeScaleRepo interface {
	FindActive(ctx context.Context) (*models.GradeScale, error)
	Upsert(ctx context.Context, scale *models.GradeScale) error
}

// GradeScaleService resolves the active grading thresholds and classifies
// totals against them. The active scale is cached in memory and replaced
// atomically on update.
type GradeScaleService struct {
	repo   gradeScaleRepo
	logger *zap.Logger

	mu     sync.RWMutex
	active models.GradeScale
	loaded bool
}

// NewGradeScaleService constructs the service with the compiled-in default
// scale as the initial fallback.
func NewGradeScaleService(repo gradeScaleRepo, logger *zap.Logger) *GradeScaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeScaleService{
		repo:   repo,
		logger: logger,
		active: models.DefaultGradeScale(),
	}
}

// ActiveScale returns the configured scale, falling back to the default
// when none has been stored.
func (s *GradeScaleService) ActiveScale(ctx context.Context) (models.GradeScale, error) {
	s.mu.RLock()
	if s.loaded {
		scale := s.active
		s.mu.RUnlock()
		return scale, nil
	}
	s.mu.RUnlock()

	if s.repo == nil {
		return models.DefaultGradeScale(), nil
	}

	stored, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.mu.Lock()
			s.loaded = true
			scale := s.active
			s.mu.Unlock()
			return scale, nil
		}
		return models.GradeScale{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade scale")
	}
	if err := stored.Validate(); err != nil {
		s.logger.Sugar().Warnw("stored grade scale invalid, using default", "error", err)
		return models.DefaultGradeScale(), nil
	}

	s.mu.Lock()
	s.active = *stored
	s.loaded = true
	s.mu.Unlock()
	return *stored, nil
}

// Update validates and persists a replacement scale.
func (s *GradeScaleService) Update(ctx context.Context, scale models.GradeScale) (*models.GradeScale, error) {
	if err := scale.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidGradeScale, err.Error())
	}
	if s.repo != nil {
		if err := s.repo.Upsert(ctx, &scale); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade scale")
		}
	}
	s.mu.Lock()
	s.active = scale
	s.loaded = true
	s.mu.Unlock()
	return &scale, nil
}

// Classify maps an obtained/obtainable pair to a grade band. With a positive
// obtainable total the percentage is clamped and rounded; otherwise the raw
// obtained value is classified directly (legacy records without an
// obtainable total).
func (s *GradeScaleService) Classify(ctx context.Context, obtained, obtainable int) (models.GradeBand, error) {
	scale, err := s.ActiveScale(ctx)
	if err != nil {
		return models.GradeBand{}, err
	}
	return scale.BandFor(Percentage(obtained, obtainable)), nil
}

// IsPass reports whether the grade sits above the lowest band of the active
// scale.
func (s *GradeScaleService) IsPass(ctx context.Context, grade string) (bool, error) {
	scale, err := s.ActiveScale(ctx)
	if err != nil {
		return false, err
	}
	return scale.IsPass(grade), nil
}
