package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sms-results-api/internal/models"
	"github.com/noah-isme/sms-results-api/internal/service"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
	"github.com/noah-isme/sms-results-api/pkg/response"
)

// ResultHandler exposes score entry and cohort endpoints.
type ResultHandler struct {
	results *service.ResultService
}

// NewResultHandler constructs handler.
func NewResultHandler(results *service.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// EnterScores godoc
// @Summary Enter one student's component scores
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.EnterScoresRequest true "Scores payload"
// @Success 200 {object} response.Envelope
// @Router /results/scores [post]
func (h *ResultHandler) EnterScores(c *gin.Context) {
	var req service.EnterScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && req.TeacherID == "" {
		req.TeacherID = claims.UserID
	}
	assessment, err := h.results.EnterScores(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// BulkEnterScores godoc
// @Summary Enter scores for several students of one cohort
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.BulkEnterScoresRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /results/scores/bulk [post]
func (h *ResultHandler) BulkEnterScores(c *gin.Context) {
	var req service.BulkEnterScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && req.TeacherID == "" {
		req.TeacherID = claims.UserID
	}
	cohort, err := h.results.BulkEnterScores(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cohort, nil)
}

// Recompute godoc
// @Summary Recompute totals, grades and positions for a cohort
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body models.CohortFilter true "Cohort scope"
// @Success 200 {object} response.Envelope
// @Router /results/recompute [post]
func (h *ResultHandler) Recompute(c *gin.Context) {
	var filter models.CohortFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cohort, err := h.results.Recompute(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cohort, nil)
}

// Cohort godoc
// @Summary List the ranked cohort
// @Tags Results
// @Produce json
// @Param classId query string true "Class"
// @Param subject query string true "Subject"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /results/cohort [get]
func (h *ResultHandler) Cohort(c *gin.Context) {
	filter := models.CohortFilter{
		ClassID: c.Query("classId"),
		Subject: c.Query("subject"),
		Term:    c.Query("term"),
		Session: c.Query("session"),
	}
	cohort, err := h.results.Cohort(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cohort, nil)
}

// StudentRecord godoc
// @Summary Get a student's marks record for a term
// @Tags Results
// @Produce json
// @Param studentId path string true "Student"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /results/students/{studentId} [get]
func (h *ResultHandler) StudentRecord(c *gin.Context) {
	record, err := h.results.StudentRecord(c.Request.Context(), c.Param("studentId"), c.Query("term"), c.Query("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
