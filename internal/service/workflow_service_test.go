package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sms-results-api/internal/models"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
)

type mockWorkflowRepo struct {
	records map[string][]models.ReportCardWorkflowRecord
	listErr error
}

func newMockWorkflowRepo() *mockWorkflowRepo {
	return &mockWorkflowRepo{records: make(map[string][]models.ReportCardWorkflowRecord)}
}

func (m *mockWorkflowRepo) List(ctx context.Context, filter models.WorkflowFilter) ([]models.ReportCardWorkflowRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	all := make([]models.ReportCardWorkflowRecord, 0)
	for _, batch := range m.records {
		for _, record := range batch {
			if filter.TeacherID != "" && record.TeacherID != filter.TeacherID {
				continue
			}
			if filter.ClassID != "" && record.ClassID != filter.ClassID {
				continue
			}
			all = append(all, record)
		}
	}
	return all, nil
}

func (m *mockWorkflowRepo) GetByKey(ctx context.Context, key models.WorkflowKey) ([]models.ReportCardWorkflowRecord, error) {
	batch := m.records[key.String()]
	out := make([]models.ReportCardWorkflowRecord, len(batch))
	copy(out, batch)
	return out, nil
}

func (m *mockWorkflowRepo) ReplaceBatch(ctx context.Context, key models.WorkflowKey, records []models.ReportCardWorkflowRecord) error {
	batch := make([]models.ReportCardWorkflowRecord, len(records))
	copy(batch, records)
	m.records[key.String()] = batch
	return nil
}

func (m *mockWorkflowRepo) DeleteByKey(ctx context.Context, key models.WorkflowKey) error {
	delete(m.records, key.String())
	return nil
}

func testKey() models.WorkflowKey {
	return models.WorkflowKey{
		TeacherID: "t-1",
		ClassID:   "jss1a",
		Subject:   "Mathematics",
		Term:      "first",
		Session:   "2025/2026",
	}
}

func submission(students ...string) SubmitReportCardsRequest {
	key := testKey()
	return SubmitReportCardsRequest{
		TeacherID:  key.TeacherID,
		ClassID:    key.ClassID,
		Subject:    key.Subject,
		Term:       key.Term,
		Session:    key.Session,
		StudentIDs: students,
	}
}

func TestKeyStatusDefaultsToDraft(t *testing.T) {
	svc := NewWorkflowService(newMockWorkflowRepo(), nil, nil)

	status, err := svc.KeyStatus(context.Background(), testKey())

	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusDraft, status)
}

func TestSubmitThenApprove(t *testing.T) {
	repo := newMockWorkflowRepo()
	svc := NewWorkflowService(repo, nil, nil)
	ctx := context.Background()

	records, err := svc.SubmitForApproval(ctx, submission("s-1", "s-2"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, models.WorkflowStatusPending, record.Status)
		assert.False(t, record.SubmittedAt.IsZero())
		assert.Nil(t, record.ReviewedAt)
	}

	status, err := svc.KeyStatus(ctx, testKey())
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusPending, status)

	reviewed, err := svc.Approve(ctx, testKey(), "admin-1")
	require.NoError(t, err)
	for _, record := range reviewed {
		assert.Equal(t, models.WorkflowStatusApproved, record.Status)
		require.NotNil(t, record.ReviewedAt)
	}

	status, err = svc.KeyStatus(ctx, testKey())
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusApproved, status)
}

func TestSubmitGuards(t *testing.T) {
	repo := newMockWorkflowRepo()
	svc := NewWorkflowService(repo, nil, nil)
	ctx := context.Background()

	t.Run("empty batch", func(t *testing.T) {
		_, err := svc.SubmitForApproval(ctx, submission("s-1"))
		require.NoError(t, err)

		_, err = svc.SubmitForApproval(ctx, submission())
		require.Error(t, err)
		assert.Contains(t, appErrors.FromError(err).Message, "no students")

		// Rejected submission leaves the prior batch intact.
		records, err := repo.GetByKey(ctx, testKey())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, models.WorkflowStatusPending, records[0].Status)

		err = svc.CancelSubmission(ctx, testKey(), "t-1")
		require.NoError(t, err)
	})

	t.Run("missing class", func(t *testing.T) {
		req := submission("s-1")
		req.ClassID = ""
		_, err := svc.SubmitForApproval(ctx, req)
		require.Error(t, err)
		assert.Contains(t, appErrors.FromError(err).Message, "class")
	})

	t.Run("missing subject", func(t *testing.T) {
		req := submission("s-1")
		req.Subject = ""
		_, err := svc.SubmitForApproval(ctx, req)
		require.Error(t, err)
		assert.Contains(t, appErrors.FromError(err).Message, "subject")
	})
}

func TestResubmitWhilePendingIsRejected(t *testing.T) {
	svc := NewWorkflowService(newMockWorkflowRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.SubmitForApproval(ctx, submission("s-1"))
	require.NoError(t, err)

	_, err = svc.SubmitForApproval(ctx, submission("s-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrWorkflowGuard.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "awaiting review")
}

func TestResubmitAfterApprovalNeedsReset(t *testing.T) {
	svc := NewWorkflowService(newMockWorkflowRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.SubmitForApproval(ctx, submission("s-1"))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, testKey(), "admin-1")
	require.NoError(t, err)

	_, err = svc.SubmitForApproval(ctx, submission("s-1"))
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "reset")

	require.NoError(t, svc.Reset(ctx, testKey()))

	_, err = svc.SubmitForApproval(ctx, submission("s-1"))
	require.NoError(t, err)
}

func TestRevokeThenResubmit(t *testing.T) {
	svc := NewWorkflowService(newMockWorkflowRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.SubmitForApproval(ctx, submission("s-1", "s-2"))
	require.NoError(t, err)

	records, err := svc.Revoke(ctx, testKey(), "admin-1", "exam scores missing for s-2")
	require.NoError(t, err)
	for _, record := range records {
		assert.Equal(t, models.WorkflowStatusRevoked, record.Status)
		assert.Equal(t, "exam scores missing for s-2", record.Message)
	}

	status, err := svc.KeyStatus(ctx, testKey())
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusRevoked, status)

	// A revoked batch accepts a corrected resubmission.
	resubmitted, err := svc.SubmitForApproval(ctx, submission("s-1", "s-2"))
	require.NoError(t, err)
	for _, record := range resubmitted {
		assert.Equal(t, models.WorkflowStatusPending, record.Status)
		assert.Empty(t, record.Message)
	}
}

func TestRevokeRequiresMessage(t *testing.T) {
	svc := NewWorkflowService(newMockWorkflowRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.SubmitForApproval(ctx, submission("s-1"))
	require.NoError(t, err)

	_, err = svc.Revoke(ctx, testKey(), "admin-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewOnlyFromPending(t *testing.T) {
	svc := NewWorkflowService(newMockWorkflowRepo(), nil, nil)
	ctx := context.Background()

	// DRAFT: nothing submitted yet.
	_, err := svc.Approve(ctx, testKey(), "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWorkflowGuard.Code, appErrors.FromError(err).Code)

	_, err = svc.SubmitForApproval(ctx, submission("s-1"))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, testKey(), "admin-1")
	require.NoError(t, err)

	// APPROVED cannot be approved or revoked again.
	_, err = svc.Approve(ctx, testKey(), "admin-1")
	require.Error(t, err)
	_, err = svc.Revoke(ctx, testKey(), "admin-1", "late change")
	require.Error(t, err)
}

func TestCancelSubmission(t *testing.T) {
	repo := newMockWorkflowRepo()
	svc := NewWorkflowService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.SubmitForApproval(ctx, submission("s-1"))
	require.NoError(t, err)

	t.Run("only the submitter can cancel", func(t *testing.T) {
		err := svc.CancelSubmission(ctx, testKey(), "someone-else")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	})

	t.Run("cancel returns the key to draft", func(t *testing.T) {
		require.NoError(t, svc.CancelSubmission(ctx, testKey(), "t-1"))

		status, err := svc.KeyStatus(ctx, testKey())
		require.NoError(t, err)
		assert.Equal(t, models.WorkflowStatusDraft, status)
		assert.Empty(t, repo.records[testKey().String()])
	})

	t.Run("cancel requires a pending submission", func(t *testing.T) {
		err := svc.CancelSubmission(ctx, testKey(), "t-1")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrWorkflowGuard.Code, appErrors.FromError(err).Code)
	})
}

func TestResetRequiresExistingRecords(t *testing.T) {
	svc := NewWorkflowService(newMockWorkflowRepo(), nil, nil)

	err := svc.Reset(context.Background(), testKey())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAggregateStatusPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		statuses []models.WorkflowStatus
		want     models.WorkflowStatus
	}{
		{"empty reads as draft", nil, models.WorkflowStatusDraft},
		{"revoked dominates pending", []models.WorkflowStatus{models.WorkflowStatusPending, models.WorkflowStatusRevoked}, models.WorkflowStatusRevoked},
		{"pending dominates approved", []models.WorkflowStatus{models.WorkflowStatusApproved, models.WorkflowStatusPending}, models.WorkflowStatusPending},
		{"approved dominates draft", []models.WorkflowStatus{models.WorkflowStatusDraft, models.WorkflowStatusApproved}, models.WorkflowStatusApproved},
		{"all approved", []models.WorkflowStatus{models.WorkflowStatusApproved, models.WorkflowStatusApproved}, models.WorkflowStatusApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, models.AggregateStatus(tc.statuses))
		})
	}
}

func TestSubscribersNotifiedAfterTransitions(t *testing.T) {
	svc := NewWorkflowService(newMockWorkflowRepo(), nil, nil)
	ctx := context.Background()

	notified := 0
	var lastSet []models.ReportCardWorkflowRecord
	svc.OnChange(func(records []models.ReportCardWorkflowRecord) {
		notified++
		lastSet = records
	})

	_, err := svc.SubmitForApproval(ctx, submission("s-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
	assert.Len(t, lastSet, 1)

	_, err = svc.Approve(ctx, testKey(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, notified)

	require.NoError(t, svc.Reset(ctx, testKey()))
	assert.Equal(t, 3, notified)
	assert.Empty(t, lastSet)
}

func TestSubmitUsesInjectedClock(t *testing.T) {
	repo := newMockWorkflowRepo()
	svc := NewWorkflowService(repo, nil, nil)
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	records, err := svc.SubmitForApproval(context.Background(), submission("s-1"))

	require.NoError(t, err)
	assert.Equal(t, fixed, records[0].SubmittedAt)
}
