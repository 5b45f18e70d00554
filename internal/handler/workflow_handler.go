package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sms-results-api/internal/models"
	"github.com/noah-isme/sms-results-api/internal/service"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
	"github.com/noah-isme/sms-results-api/pkg/response"
)

// WorkflowKeyRequest identifies one submittable batch in request bodies.
type WorkflowKeyRequest struct {
	TeacherID string `json:"teacher_id" binding:"required"`
	ClassID   string `json:"class_id" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
	Term      string `json:"term" binding:"required"`
	Session   string `json:"session" binding:"required"`
}

func (r WorkflowKeyRequest) key() models.WorkflowKey {
	return models.WorkflowKey{
		TeacherID: r.TeacherID,
		ClassID:   r.ClassID,
		Subject:   r.Subject,
		Term:      r.Term,
		Session:   r.Session,
	}
}

// RevokeRequest carries the reviewer's message back to the submitter.
type RevokeRequest struct {
	WorkflowKeyRequest
	Message string `json:"message" binding:"required"`
}

// WorkflowHandler exposes report-card workflow endpoints.
type WorkflowHandler struct {
	workflow *service.WorkflowService
	metrics  *service.MetricsService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(workflow *service.WorkflowService, metrics *service.MetricsService) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow, metrics: metrics}
}

// Submit godoc
// @Summary Submit a batch of report cards for approval
// @Tags Workflow
// @Accept json
// @Produce json
// @Param payload body service.SubmitReportCardsRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /report-cards/submit [post]
func (h *WorkflowHandler) Submit(c *gin.Context) {
	var req service.SubmitReportCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && req.TeacherID == "" {
		req.TeacherID = claims.UserID
	}
	records, err := h.workflow.SubmitForApproval(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountWorkflowTransition(string(models.WorkflowStatusPending))
	response.Created(c, records)
}

// Approve godoc
// @Summary Approve a pending submission (admin)
// @Tags Workflow
// @Accept json
// @Produce json
// @Param payload body WorkflowKeyRequest true "Workflow key"
// @Success 200 {object} response.Envelope
// @Router /report-cards/approve [post]
func (h *WorkflowHandler) Approve(c *gin.Context) {
	var req WorkflowKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reviewerID := ""
	if claims := claimsFromContext(c); claims != nil {
		reviewerID = claims.UserID
	}
	records, err := h.workflow.Approve(c.Request.Context(), req.key(), reviewerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountWorkflowTransition(string(models.WorkflowStatusApproved))
	response.JSON(c, http.StatusOK, records, nil)
}

// Revoke godoc
// @Summary Revoke a pending submission with a message (admin)
// @Tags Workflow
// @Accept json
// @Produce json
// @Param payload body RevokeRequest true "Workflow key and message"
// @Success 200 {object} response.Envelope
// @Router /report-cards/revoke [post]
func (h *WorkflowHandler) Revoke(c *gin.Context) {
	var req RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reviewerID := ""
	if claims := claimsFromContext(c); claims != nil {
		reviewerID = claims.UserID
	}
	records, err := h.workflow.Revoke(c.Request.Context(), req.key(), reviewerID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountWorkflowTransition(string(models.WorkflowStatusRevoked))
	response.JSON(c, http.StatusOK, records, nil)
}

// Cancel godoc
// @Summary Withdraw a pending submission (submitter)
// @Tags Workflow
// @Accept json
// @Produce json
// @Param payload body WorkflowKeyRequest true "Workflow key"
// @Success 204
// @Router /report-cards/cancel [post]
func (h *WorkflowHandler) Cancel(c *gin.Context) {
	var req WorkflowKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID := req.TeacherID
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	if err := h.workflow.CancelSubmission(c.Request.Context(), req.key(), actorID); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountWorkflowTransition(string(models.WorkflowStatusDraft))
	response.NoContent(c)
}

// Reset godoc
// @Summary Reset a submission to draft regardless of status (admin)
// @Tags Workflow
// @Accept json
// @Produce json
// @Param payload body WorkflowKeyRequest true "Workflow key"
// @Success 204
// @Router /report-cards/reset [post]
func (h *WorkflowHandler) Reset(c *gin.Context) {
	var req WorkflowKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.workflow.Reset(c.Request.Context(), req.key()); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountWorkflowTransition(string(models.WorkflowStatusDraft))
	response.NoContent(c)
}

// Status godoc
// @Summary Aggregate status for a workflow key
// @Tags Workflow
// @Produce json
// @Param teacherId query string true "Teacher"
// @Param classId query string true "Class"
// @Param subject query string true "Subject"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /report-cards/status [get]
func (h *WorkflowHandler) Status(c *gin.Context) {
	key := models.WorkflowKey{
		TeacherID: c.Query("teacherId"),
		ClassID:   c.Query("classId"),
		Subject:   c.Query("subject"),
		Term:      c.Query("term"),
		Session:   c.Query("session"),
	}
	status, err := h.workflow.KeyStatus(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": status}, nil)
}

// Records godoc
// @Summary List workflow records
// @Tags Workflow
// @Produce json
// @Param teacherId query string false "Teacher"
// @Param classId query string false "Class"
// @Param subject query string false "Subject"
// @Param term query string false "Term"
// @Param session query string false "Session"
// @Success 200 {object} response.Envelope
// @Router /report-cards [get]
func (h *WorkflowHandler) Records(c *gin.Context) {
	filter := models.WorkflowFilter{
		TeacherID: c.Query("teacherId"),
		ClassID:   c.Query("classId"),
		Subject:   c.Query("subject"),
		Term:      c.Query("term"),
		Session:   c.Query("session"),
	}
	records, err := h.workflow.Records(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
