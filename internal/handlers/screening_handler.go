package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/psytest-service/internal/services"
	"github.com/SAP-F-2025/psytest-service/internal/utils"
)

type ScreeningHandler struct {
	BaseHandler
	screeningService services.ScreeningService
}

func NewScreeningHandler(screeningService services.ScreeningService, logger utils.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		BaseHandler:      NewBaseHandler(logger),
		screeningService: screeningService,
	}
}

// ScreenText screens question/answer pairs for crisis keywords
// @Summary Screen text
// @Tags screening
// @Accept json
// @Produce json
// @Param request body services.ScreenTextRequest true "Pairs"
// @Success 200 {object} models.CrisisAssessment
// @Router /screening/text [post]
func (h *ScreeningHandler) ScreenText(c *gin.Context) {
	var req services.ScreenTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	assessment, err := h.screeningService.ScreenText(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// ScreenScore applies the low-score rules of a test category
// @Summary Screen score
// @Tags screening
// @Accept json
// @Produce json
// @Param request body services.ScreenScoreRequest true "Category and percentage"
// @Success 200 {object} models.CrisisAssessment
// @Router /screening/score [post]
func (h *ScreeningHandler) ScreenScore(c *gin.Context) {
	var req services.ScreenScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	assessment, err := h.screeningService.ScreenScore(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}
