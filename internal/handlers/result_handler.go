package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/psytest-service/internal/services"
	"github.com/SAP-F-2025/psytest-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultHandler struct {
	BaseHandler
	scoringService services.ScoringService
}

func NewResultHandler(scoringService services.ScoringService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler:    NewBaseHandler(logger),
		scoringService: scoringService,
	}
}

// GetResult returns a stored result
// @Summary Get result
// @Tags results
// @Produce json
// @Param id path uint true "Result ID"
// @Success 200 {object} models.Result
// @Failure 404 {object} ErrorResponse
// @Router /results/{id} [get]
func (h *ResultHandler) GetResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	result, err := h.scoringService.GetResult(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecalculateResult rescores a result with the current scores and rubric
// @Summary Recalculate result
// @Tags results
// @Produce json
// @Param id path uint true "Result ID"
// @Success 200 {object} models.Result
// @Router /results/{id}/recalculate [post]
func (h *ResultHandler) RecalculateResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Recalculating result", "result_id", id)

	result, err := h.scoringService.Recalculate(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportResults streams every result of a test as an xlsx workbook
// @Summary Export results
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Test ID"
// @Router /tests/{id}/results/export [get]
func (h *ResultHandler) ExportResults(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting results", "test_id", id)

	// buffered so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := h.scoringService.ExportResults(c.Request.Context(), id, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="test-%d-results.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
