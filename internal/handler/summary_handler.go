package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sms-results-api/internal/service"
	"github.com/noah-isme/sms-results-api/pkg/response"
)

// SummaryHandler exposes the cumulative summary endpoint.
type SummaryHandler struct {
	summaries *service.SummaryService
}

// NewSummaryHandler constructs handler.
func NewSummaryHandler(summaries *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries}
}

// Summarize godoc
// @Summary Cumulative standing across approved results in a session
// @Tags Summaries
// @Produce json
// @Param studentId path string true "Student"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /results/summary/{studentId} [get]
func (h *SummaryHandler) Summarize(c *gin.Context) {
	summary, err := h.summaries.Summarize(c.Request.Context(), c.Param("studentId"), c.Query("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if summary == nil {
		// No approved results yet: pending, not an error.
		response.JSON(c, http.StatusOK, gin.H{"pending": true}, nil)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
