package models

import (
	"fmt"
	"time"
)

// WorkflowStatus captures review states for a submitted batch of results.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "DRAFT"
	WorkflowStatusPending  WorkflowStatus = "PENDING"
	WorkflowStatusApproved WorkflowStatus = "APPROVED"
	WorkflowStatusRevoked  WorkflowStatus = "REVOKED"
)

// statusPrecedence ranks mixed per-student statuses so a negative or
// actionable state is never hidden behind a more positive one.
var statusPrecedence = map[WorkflowStatus]int{
	WorkflowStatusRevoked:  3,
	WorkflowStatusPending:  2,
	WorkflowStatusApproved: 1,
	WorkflowStatusDraft:    0,
}

// Precedence returns the status rank used when aggregating a batch.
func (s WorkflowStatus) Precedence() int {
	return statusPrecedence[s]
}

// AggregateStatus folds per-student statuses into one key-level status.
// An empty set reads as DRAFT.
func AggregateStatus(statuses []WorkflowStatus) WorkflowStatus {
	result := WorkflowStatusDraft
	for _, s := range statuses {
		if s.Precedence() > result.Precedence() {
			result = s
		}
	}
	return result
}

// WorkflowKey identifies one submittable batch of results.
type WorkflowKey struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	ClassID   string `db:"class_id" json:"class_id"`
	Subject   string `db:"subject" json:"subject"`
	Term      string `db:"term" json:"term"`
	Session   string `db:"session" json:"session"`
}

// String renders the key for logging and cache keys.
func (k WorkflowKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", k.TeacherID, k.ClassID, k.Subject, k.Term, k.Session)
}

// ReportCardWorkflowRecord tracks one student's result through review.
// Exactly one current record exists per (key, student).
type ReportCardWorkflowRecord struct {
	ID          string         `db:"id" json:"id"`
	TeacherID   string         `db:"teacher_id" json:"teacher_id"`
	ClassID     string         `db:"class_id" json:"class_id"`
	Subject     string         `db:"subject" json:"subject"`
	Term        string         `db:"term" json:"term"`
	Session     string         `db:"session" json:"session"`
	StudentID   string         `db:"student_id" json:"student_id"`
	Status      WorkflowStatus `db:"status" json:"status"`
	Message     string         `db:"message" json:"message,omitempty"`
	SubmittedAt time.Time      `db:"submitted_at" json:"submitted_at"`
	ReviewedAt  *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// Key extracts the batch key from a record.
func (r ReportCardWorkflowRecord) Key() WorkflowKey {
	return WorkflowKey{
		TeacherID: r.TeacherID,
		ClassID:   r.ClassID,
		Subject:   r.Subject,
		Term:      r.Term,
		Session:   r.Session,
	}
}

// WorkflowFilter constrains workflow listing queries.
type WorkflowFilter struct {
	TeacherID string
	ClassID   string
	Subject   string
	Term      string
	Session   string
	StudentID string
	Status    []WorkflowStatus
}
