package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sms-results-api/internal/models"
	"github.com/noah-isme/sms-results-api/internal/service"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
	"github.com/noah-isme/sms-results-api/pkg/response"
)

// ExportHandler exposes broadsheet and report-card export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Broadsheet godoc
// @Summary Export the ranked cohort as CSV or PDF
// @Tags Exports
// @Produce json
// @Param classId query string true "Class"
// @Param subject query string true "Subject"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /results/export [get]
func (h *ExportHandler) Broadsheet(c *gin.Context) {
	filter := models.CohortFilter{
		ClassID: c.Query("classId"),
		Subject: c.Query("subject"),
		Term:    c.Query("term"),
		Session: c.Query("session"),
	}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	result, err := h.exports.ExportBroadsheet(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BroadsheetAsync godoc
// @Summary Queue a broadsheet export
// @Tags Exports
// @Accept json
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /results/export/async [post]
func (h *ExportHandler) BroadsheetAsync(c *gin.Context) {
	var req struct {
		models.CohortFilter
		Format service.ExportFormat `json:"format"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.Format == "" {
		req.Format = service.ExportFormatPDF
	}
	jobID, err := h.exports.EnqueueBroadsheet(req.CohortFilter, req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"job_id": jobID}, nil)
}

// ReportCard godoc
// @Summary Export one student's report card
// @Tags Exports
// @Produce json
// @Param studentId path string true "Student"
// @Param term query string true "Term"
// @Param session query string true "Session"
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /results/students/{studentId}/export [get]
func (h *ExportHandler) ReportCard(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatPDF)))
	result, err := h.exports.ExportReportCard(c.Request.Context(), c.Param("studentId"), c.Query("term"), c.Query("session"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a generated export by signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	relPath, err := h.exports.ParseToken(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available"))
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", "attachment; filename="+relPath)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
