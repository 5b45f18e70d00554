package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sms-results-api/internal/models"
	"github.com/noah-isme/sms-results-api/internal/service"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
	"github.com/noah-isme/sms-results-api/pkg/response"
)

// GradeScaleHandler exposes grading threshold configuration.
type GradeScaleHandler struct {
	scales *service.GradeScaleService
}

// NewGradeScaleHandler constructs handler.
func NewGradeScaleHandler(scales *service.GradeScaleService) *GradeScaleHandler {
	return &GradeScaleHandler{scales: scales}
}

// Get godoc
// @Summary Active grade scale
// @Tags GradeScales
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-scales [get]
func (h *GradeScaleHandler) Get(c *gin.Context) {
	scale, err := h.scales.ActiveScale(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scale, nil)
}

// Update godoc
// @Summary Replace the grade scale (admin)
// @Tags GradeScales
// @Accept json
// @Produce json
// @Param payload body models.GradeScale true "Replacement scale"
// @Success 200 {object} response.Envelope
// @Router /grade-scales [put]
func (h *GradeScaleHandler) Update(c *gin.Context) {
	var scale models.GradeScale
	if err := c.ShouldBindJSON(&scale); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.scales.Update(c.Request.Context(), scale)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
