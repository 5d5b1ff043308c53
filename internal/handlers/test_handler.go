package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/psytest-service/internal/services"
	"github.com/SAP-F-2025/psytest-service/internal/utils"
)

// TestHandler serves the test catalog and rubric administration
type TestHandler struct {
	BaseHandler
	testService   services.TestService
	rubricService services.RubricService
}

func NewTestHandler(testService services.TestService, rubricService services.RubricService, logger utils.Logger) *TestHandler {
	return &TestHandler{
		BaseHandler:   NewBaseHandler(logger),
		testService:   testService,
		rubricService: rubricService,
	}
}

// ListTests lists active tests
// @Summary List tests
// @Tags tests
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Router /tests [get]
func (h *TestHandler) ListTests(c *gin.Context) {
	var query services.ListTestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	page, err := h.testService.List(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetTest returns a test with its question count
// @Summary Get test
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.TestSummary
// @Router /tests/{id} [get]
func (h *TestHandler) GetTest(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	test, err := h.testService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// GetRubric returns the interpretation ranges of a test
// @Summary Get rubric
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Router /tests/{id}/rubric [get]
func (h *TestHandler) GetRubric(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	ranges, err := h.rubricService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ranges": ranges})
}

// ReplaceRubric swaps the whole rubric of a test
// @Summary Replace rubric
// @Tags tests
// @Accept json
// @Produce json
// @Param id path uint true "Test ID"
// @Param rubric body services.ReplaceRubricRequest true "Ranges"
// @Router /tests/{id}/rubric [put]
func (h *TestHandler) ReplaceRubric(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.ReplaceRubricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Replacing rubric", "test_id", id)

	ranges, err := h.rubricService.Replace(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ranges": ranges})
}

// ImportRubric replaces the rubric from an uploaded xlsx file
// @Summary Import rubric
// @Tags tests
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Test ID"
// @Param file formData file true "xlsx workbook"
// @Router /tests/{id}/rubric/import [post]
func (h *TestHandler) ImportRubric(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file",
			Details: err.Error(),
		})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unreadable file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing rubric", "test_id", id, "filename", header.Filename)

	ranges, err := h.rubricService.Import(c.Request.Context(), id, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ranges": ranges})
}
