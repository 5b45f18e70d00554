package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sms-results-api/internal/models"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
)

type workflowRepo interface {
	List(ctx context.Context, filter models.WorkflowFilter) ([]models.ReportCardWorkflowRecord, error)
	GetByKey(ctx context.Context, key models.WorkflowKey) ([]models.ReportCardWorkflowRecord, error)
	ReplaceBatch(ctx context.Context, key models.WorkflowKey, records []models.ReportCardWorkflowRecord) error
	DeleteByKey(ctx context.Context, key models.WorkflowKey) error
}

// WorkflowChangeHandler receives the full updated workflow record set after
// every successful transition.
type WorkflowChangeHandler func(records []models.ReportCardWorkflowRecord)

// SubmitReportCardsRequest submits a batch of students for approval.
type SubmitReportCardsRequest struct {
	TeacherID  string   `json:"teacher_id" validate:"required"`
	ClassID    string   `json:"class_id" validate:"required"`
	Subject    string   `json:"subject" validate:"required"`
	Term       string   `json:"term" validate:"required"`
	Session    string   `json:"session" validate:"required"`
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
}

// Key returns the workflow key of the submission.
func (r SubmitReportCardsRequest) Key() models.WorkflowKey {
	return models.WorkflowKey{
		TeacherID: r.TeacherID,
		ClassID:   r.ClassID,
		Subject:   r.Subject,
		Term:      r.Term,
		Session:   r.Session,
	}
}

// WorkflowService owns every report-card state transition. All mutation
// funnels through the guard checks here; a rejected transition mutates
// nothing and carries a specific reason. Subscribers registered through
// OnChange are notified with the full record set after each successful
// transition.
type WorkflowService struct {
	repo      workflowRepo
	validator *validator.Validate
	logger    *zap.SugaredLogger
	now       func() time.Time

	mu          sync.RWMutex
	subscribers []WorkflowChangeHandler
}

// NewWorkflowService constructs the workflow state machine service.
func NewWorkflowService(repo workflowRepo, validate *validator.Validate, logger *zap.Logger) *WorkflowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		repo:      repo,
		validator: validate,
		logger:    logger.Sugar(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// OnChange registers a subscriber for workflow updates.
func (s *WorkflowService) OnChange(handler WorkflowChangeHandler) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, handler)
	s.mu.Unlock()
}

// Records lists workflow records matching the filter.
func (s *WorkflowService) Records(ctx context.Context, filter models.WorkflowFilter) ([]models.ReportCardWorkflowRecord, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workflow records")
	}
	return records, nil
}

// KeyStatus folds the per-student statuses for a key into one batch status.
// A key with no records reads as DRAFT.
func (s *WorkflowService) KeyStatus(ctx context.Context, key models.WorkflowKey) (models.WorkflowStatus, error) {
	records, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow records")
	}
	statuses := make([]models.WorkflowStatus, 0, len(records))
	for _, record := range records {
		statuses = append(statuses, record.Status)
	}
	return models.AggregateStatus(statuses), nil
}

// SubmitForApproval moves a key from DRAFT or REVOKED to PENDING for every
// student in the batch. The batch must be non-empty and the class and
// subject selected; an APPROVED or already PENDING key rejects the
// submission without touching existing records.
func (s *WorkflowService) SubmitForApproval(ctx context.Context, req SubmitReportCardsRequest) ([]models.ReportCardWorkflowRecord, error) {
	if req.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select a class before submitting")
	}
	if req.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select a subject before submitting")
	}
	if len(req.StudentIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot submit an empty batch: no students selected")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	key := req.Key()
	current, err := s.KeyStatus(ctx, key)
	if err != nil {
		return nil, err
	}
	switch current {
	case models.WorkflowStatusApproved:
		return nil, appErrors.Clone(appErrors.ErrWorkflowGuard, "results already approved; request an admin reset before resubmitting")
	case models.WorkflowStatusPending:
		return nil, appErrors.Clone(appErrors.ErrWorkflowGuard, "results already submitted and awaiting review")
	}

	submittedAt := s.now()
	records := make([]models.ReportCardWorkflowRecord, 0, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		records = append(records, models.ReportCardWorkflowRecord{
			TeacherID:   key.TeacherID,
			ClassID:     key.ClassID,
			Subject:     key.Subject,
			Term:        key.Term,
			Session:     key.Session,
			StudentID:   studentID,
			Status:      models.WorkflowStatusPending,
			SubmittedAt: submittedAt,
		})
	}
	if err := s.repo.ReplaceBatch(ctx, key, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save submission")
	}

	s.logger.Infow("report cards submitted", "key", key.String(), "students", len(records))
	s.notify(ctx)
	return records, nil
}

// Approve marks every pending record under the key as APPROVED.
func (s *WorkflowService) Approve(ctx context.Context, key models.WorkflowKey, reviewerID string) ([]models.ReportCardWorkflowRecord, error) {
	return s.review(ctx, key, reviewerID, models.WorkflowStatusApproved, "")
}

// Revoke returns a pending batch to the submitter with a message explaining
// what must change. The message is required so the rejection is actionable.
func (s *WorkflowService) Revoke(ctx context.Context, key models.WorkflowKey, reviewerID, message string) ([]models.ReportCardWorkflowRecord, error) {
	if message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a revocation message for the submitter is required")
	}
	return s.review(ctx, key, reviewerID, models.WorkflowStatusRevoked, message)
}

func (s *WorkflowService) review(ctx context.Context, key models.WorkflowKey, reviewerID string, target models.WorkflowStatus, message string) ([]models.ReportCardWorkflowRecord, error) {
	records, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow records")
	}
	current := models.AggregateStatus(statusesOf(records))
	if current != models.WorkflowStatusPending {
		return nil, appErrors.Clone(appErrors.ErrWorkflowGuard, "only a pending submission can be reviewed; current status is "+string(current))
	}

	reviewedAt := s.now()
	for i := range records {
		records[i].Status = target
		records[i].Message = message
		records[i].ReviewedAt = &reviewedAt
	}
	if err := s.repo.ReplaceBatch(ctx, key, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save review decision")
	}

	s.logger.Infow("report cards reviewed", "key", key.String(), "status", target, "reviewer", reviewerID)
	s.notify(ctx)
	return records, nil
}

// CancelSubmission is submitter-initiated: it withdraws a pending batch back
// to DRAFT. DRAFT is the no-record default, so the key's records are removed.
func (s *WorkflowService) CancelSubmission(ctx context.Context, key models.WorkflowKey, actorID string) error {
	if actorID != key.TeacherID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the submitting teacher can cancel a submission")
	}
	current, err := s.KeyStatus(ctx, key)
	if err != nil {
		return err
	}
	if current != models.WorkflowStatusPending {
		return appErrors.Clone(appErrors.ErrWorkflowGuard, "only a pending submission can be cancelled; current status is "+string(current))
	}
	if err := s.repo.DeleteByKey(ctx, key); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel submission")
	}

	s.logger.Infow("submission cancelled", "key", key.String())
	s.notify(ctx)
	return nil
}

// Reset is the external (admin) escape hatch: it clears all workflow records
// for a key regardless of status, returning the key to DRAFT so the teacher
// can submit again. This is the only way out of APPROVED.
func (s *WorkflowService) Reset(ctx context.Context, key models.WorkflowKey) error {
	records, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow records")
	}
	if len(records) == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "no submission exists for this key")
	}
	if err := s.repo.DeleteByKey(ctx, key); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset submission")
	}

	s.logger.Infow("submission reset", "key", key.String())
	s.notify(ctx)
	return nil
}

func (s *WorkflowService) notify(ctx context.Context) {
	records, err := s.repo.List(ctx, models.WorkflowFilter{})
	if err != nil {
		s.logger.Warnw("failed to load records for change notification", "error", err)
		return
	}
	s.mu.RLock()
	subscribers := make([]WorkflowChangeHandler, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.RUnlock()
	for _, handler := range subscribers {
		handler(records)
	}
}

func statusesOf(records []models.ReportCardWorkflowRecord) []models.WorkflowStatus {
	statuses := make([]models.WorkflowStatus, 0, len(records))
	for _, record := range records {
		statuses = append(statuses, record.Status)
	}
	return statuses
}
