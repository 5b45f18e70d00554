package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sms-results-api/internal/models"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
)

type marksRepo interface {
	ListCohort(ctx context.Context, filter models.CohortFilter) ([]models.SubjectAssessment, error)
	ListByStudent(ctx context.Context, studentID, term, session string) ([]models.SubjectAssessment, error)
	SaveCohort(ctx context.Context, assessments []models.SubjectAssessment) error
	UpsertRecordHeader(ctx context.Context, record *models.StudentMarksRecord) error
	ClassAverages(ctx context.Context, classID, term, session string) (map[string]float64, error)
}

type workflowStatusReader interface {
	KeyStatus(ctx context.Context, key models.WorkflowKey) (models.WorkflowStatus, error)
}

type classifier interface {
	Classify(ctx context.Context, obtained, obtainable int) (models.GradeBand, error)
	IsPass(ctx context.Context, grade string) (bool, error)
}

// EnterScoresRequest carries one student's raw component scores.
type EnterScoresRequest struct {
	TeacherID string                    `json:"teacher_id" validate:"required"`
	StudentID string                    `json:"student_id" validate:"required"`
	ClassID   string                    `json:"class_id" validate:"required"`
	Subject   string                    `json:"subject" validate:"required"`
	Term      string                    `json:"term" validate:"required"`
	Session   string                    `json:"session" validate:"required"`
	Scores    models.RawComponentScores `json:"scores"`
}

// BulkScoreItem is one student's scores within a bulk payload.
type BulkScoreItem struct {
	StudentID string                    `json:"student_id" validate:"required"`
	Scores    models.RawComponentScores `json:"scores"`
}

// BulkEnterScoresRequest enters scores for several students of one cohort.
type BulkEnterScoresRequest struct {
	TeacherID string          `json:"teacher_id" validate:"required"`
	ClassID   string          `json:"class_id" validate:"required"`
	Subject   string          `json:"subject" validate:"required"`
	Term      string          `json:"term" validate:"required"`
	Session   string          `json:"session" validate:"required"`
	Items     []BulkScoreItem `json:"items" validate:"required,min=1,dive"`
}

// ResultService turns raw marks into ranked, graded cohort results. Every
// edit recomputes the whole cohort: normalize, aggregate, classify, rank,
// then persist in one transaction. Raw input and derived fields are never
// patched independently; the derived set is replaced wholesale.
type ResultService struct {
	marks     marksRepo
	workflow  workflowStatusReader
	grades    classifier
	maxima    models.ComponentMaxima
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService constructs the result orchestrator.
func NewResultService(marks marksRepo, workflow workflowStatusReader, grades classifier, maxima models.ComponentMaxima, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{
		marks:     marks,
		workflow:  workflow,
		grades:    grades,
		maxima:    maxima,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// EnterScores records one student's scores and recomputes the cohort.
func (s *ResultService) EnterScores(ctx context.Context, req EnterScoresRequest) (*models.SubjectAssessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scores payload")
	}
	bulk := BulkEnterScoresRequest{
		TeacherID: req.TeacherID,
		ClassID:   req.ClassID,
		Subject:   req.Subject,
		Term:      req.Term,
		Session:   req.Session,
		Items:     []BulkScoreItem{{StudentID: req.StudentID, Scores: req.Scores}},
	}
	cohort, err := s.enter(ctx, bulk)
	if err != nil {
		return nil, err
	}
	for i := range cohort {
		if cohort[i].StudentID == req.StudentID {
			return &cohort[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrInternal, "recomputed cohort missing the edited student")
}

// BulkEnterScores records scores for several students and recomputes the
// cohort once.
func (s *ResultService) BulkEnterScores(ctx context.Context, req BulkEnterScoresRequest) ([]models.SubjectAssessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk scores payload")
	}
	return s.enter(ctx, req)
}

func (s *ResultService) enter(ctx context.Context, req BulkEnterScoresRequest) ([]models.SubjectAssessment, error) {
	key := models.WorkflowKey{
		TeacherID: req.TeacherID,
		ClassID:   req.ClassID,
		Subject:   req.Subject,
		Term:      req.Term,
		Session:   req.Session,
	}
	status, err := s.workflow.KeyStatus(ctx, key)
	if err != nil {
		return nil, err
	}
	if status == models.WorkflowStatusPending || status == models.WorkflowStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrResultsLocked, "scores cannot be edited while results are "+string(status)+"; cancel or reset the submission first")
	}

	filter := models.CohortFilter{ClassID: req.ClassID, Subject: req.Subject, Term: req.Term, Session: req.Session}
	cohort, err := s.marks.ListCohort(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort")
	}

	byStudent := make(map[string]int, len(cohort))
	for i := range cohort {
		byStudent[cohort[i].StudentID] = i
	}
	for _, item := range req.Items {
		normalized := NormalizeScores(item.Scores, s.maxima)
		if i, ok := byStudent[item.StudentID]; ok {
			cohort[i].Scores = normalized
			continue
		}
		cohort = append(cohort, models.SubjectAssessment{
			StudentID: item.StudentID,
			ClassID:   req.ClassID,
			Subject:   req.Subject,
			Term:      req.Term,
			Session:   req.Session,
			Scores:    normalized,
		})
		byStudent[item.StudentID] = len(cohort) - 1
	}

	if err := s.recomputeCohort(ctx, cohort); err != nil {
		return nil, err
	}
	if err := s.marks.SaveCohort(ctx, cohort); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save results; your entries are preserved, retry the save")
	}
	for _, item := range req.Items {
		if err := s.refreshRecordHeader(ctx, req.ClassID, item.StudentID, req.Term, req.Session); err != nil {
			return nil, err
		}
	}
	return cohort, nil
}

// Recompute re-derives every total, grade and position for a cohort from
// the stored component scores. Idempotent: recomputing an unchanged cohort
// writes identical values.
func (s *ResultService) Recompute(ctx context.Context, filter models.CohortFilter) ([]models.SubjectAssessment, error) {
	if filter.ClassID == "" || filter.Subject == "" || filter.Term == "" || filter.Session == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class, subject, term and session are required")
	}
	cohort, err := s.marks.ListCohort(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort")
	}
	if len(cohort) == 0 {
		return []models.SubjectAssessment{}, nil
	}
	if err := s.recomputeCohort(ctx, cohort); err != nil {
		return nil, err
	}
	if err := s.marks.SaveCohort(ctx, cohort); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save recomputed results")
	}
	return cohort, nil
}

// Cohort lists the ranked assessments for a class/subject/term/session.
// Missing cohorts yield an empty slice, not an error.
func (s *ResultService) Cohort(ctx context.Context, filter models.CohortFilter) ([]models.SubjectAssessment, error) {
	cohort, err := s.marks.ListCohort(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort")
	}
	if cohort == nil {
		cohort = []models.SubjectAssessment{}
	}
	return cohort, nil
}

// StudentRecord assembles a student's marks record for a term+session,
// including the overall average, class standing and promotion status.
func (s *ResultService) StudentRecord(ctx context.Context, studentID, term, session string) (*models.StudentMarksRecord, error) {
	rows, err := s.marks.ListByStudent(ctx, studentID, term, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student results")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no results recorded for this student in the selected term")
	}

	classID := rows[0].ClassID
	record := &models.StudentMarksRecord{
		StudentID: studentID,
		ClassID:   classID,
		Term:      term,
		Session:   session,
		Subjects:  make(map[string]models.SubjectAssessment, len(rows)),
	}
	for _, row := range rows {
		record.Subjects[row.Subject] = row
	}
	record.OverallAverage = overallAverage(rows)
	record.Status, err = s.promotionStatus(ctx, rows, record.OverallAverage)
	if err != nil {
		return nil, err
	}

	averages, err := s.marks.ClassAverages(ctx, classID, term, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank class averages")
	}
	record.OverallPosition, record.NumberInClass = standing(studentID, averages)
	record.UpdatedAt = time.Now().UTC()
	return record, nil
}

func (s *ResultService) recomputeCohort(ctx context.Context, cohort []models.SubjectAssessment) error {
	start := time.Now()
	defer func() {
		s.metrics.ObserveRecompute(time.Since(start))
	}()

	obtainable := s.maxima.ObtainableTotal()
	refs := make([]*models.SubjectAssessment, len(cohort))
	for i := range cohort {
		totals := AggregateScores(cohort[i].Scores)
		cohort[i].ContinuousTotal = totals.ContinuousTotal
		cohort[i].GrandTotal = totals.GrandTotal
		cohort[i].ObtainableTotal = obtainable
		refs[i] = &cohort[i]
	}
	RankCohort(refs)
	for i := range cohort {
		band, err := s.grades.Classify(ctx, cohort[i].ObtainedTotal, cohort[i].ObtainableTotal)
		if err != nil {
			return err
		}
		cohort[i].Grade = band.Grade
		cohort[i].Remark = band.Remark
	}
	return nil
}

func (s *ResultService) refreshRecordHeader(ctx context.Context, classID, studentID, term, session string) error {
	rows, err := s.marks.ListByStudent(ctx, studentID, term, session)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh student record")
	}
	if len(rows) == 0 {
		return nil
	}
	average := overallAverage(rows)
	status, err := s.promotionStatus(ctx, rows, average)
	if err != nil {
		return err
	}
	record := &models.StudentMarksRecord{
		StudentID:      studentID,
		ClassID:        classID,
		Term:           term,
		Session:        session,
		OverallAverage: average,
		Status:         status,
	}
	if err := s.marks.UpsertRecordHeader(ctx, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student record")
	}
	return nil
}

// promotionStatus derives the end-of-term standing: promoted when the
// overall average passes and at most one subject is failed, repeat when the
// average sits in the failing band.
func (s *ResultService) promotionStatus(ctx context.Context, rows []models.SubjectAssessment, average float64) (models.PromotionStatus, error) {
	band, err := s.grades.Classify(ctx, int(math.Round(average)), 100)
	if err != nil {
		return models.PromotionStatusPending, err
	}
	pass, err := s.grades.IsPass(ctx, band.Grade)
	if err != nil {
		return models.PromotionStatusPending, err
	}
	if !pass {
		return models.PromotionStatusRepeat, nil
	}
	failed := 0
	for _, row := range rows {
		if row.Grade == "" {
			return models.PromotionStatusPending, nil
		}
		rowPass, err := s.grades.IsPass(ctx, row.Grade)
		if err != nil {
			return models.PromotionStatusPending, err
		}
		if !rowPass {
			failed++
		}
	}
	if failed > 1 {
		return models.PromotionStatusRepeat, nil
	}
	return models.PromotionStatusPromoted, nil
}

func overallAverage(rows []models.SubjectAssessment) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0
	for _, row := range rows {
		sum += row.AveragePercent
	}
	return math.Round(float64(sum)/float64(len(rows))*100) / 100
}

// standing ranks a student's overall average against the class. Ties take
// distinct sequential positions, ordered by student id for determinism.
func standing(studentID string, averages map[string]float64) (position, total int) {
	type entry struct {
		id  string
		avg float64
	}
	entries := make([]entry, 0, len(averages))
	for id, avg := range averages {
		entries = append(entries, entry{id: id, avg: avg})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].avg != entries[j].avg {
			return entries[i].avg > entries[j].avg
		}
		return entries[i].id < entries[j].id
	})
	for i, e := range entries {
		if e.id == studentID {
			return i + 1, len(entries)
		}
	}
	return 0, len(entries)
}
