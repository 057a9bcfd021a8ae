package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reospicespowders/product-backend-sub002/internal/services"
	"github.com/reospicespowders/product-backend-sub002/internal/validator"
)

type ResultHandler struct {
	BaseHandler
	resultService services.ResultService
	validator     *validator.Validator
}

func NewResultHandler(
	resultService services.ResultService,
	validator *validator.Validator,
	logger *slog.Logger,
) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   NewBaseHandler(logger),
		resultService: resultService,
		validator:     validator,
	}
}

// MaterializeAttempt scores one attempt into a persisted result
// @Summary Materialize one attempt
// @Description Scores the attempt and stores its result; no-op when a result already exists
// @Tags results
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.Result
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/materialize [post]
func (h *ResultHandler) MaterializeAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Materializing attempt", "attempt_id", id)

	result, err := h.resultService.Materialize(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MaterializeAll scores every unscored attempt of a survey
// @Summary Materialize all attempts of a survey
// @Tags results
// @Produce json
// @Param owner_id path uint true "Survey ID"
// @Success 200 {object} services.MaterializeSummary
// @Failure 400 {object} ErrorResponse
// @Router /surveys/{owner_id}/results/materialize [post]
func (h *ResultHandler) MaterializeAll(c *gin.Context) {
	ownerID := h.parseIDParam(c, "owner_id")
	if ownerID == 0 {
		return
	}

	h.LogRequest(c, "Materializing all attempts", "owner_id", ownerID)

	summary, err := h.resultService.MaterializeAll(c.Request.Context(), ownerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RegenerateResults drops and rebuilds every result of a survey
// @Summary Regenerate survey results
// @Description Deletes stored results and re-scores every attempt from its snapshot
// @Tags results
// @Produce json
// @Param owner_id path uint true "Survey ID"
// @Success 200 {object} services.MaterializeSummary
// @Failure 400 {object} ErrorResponse
// @Router /surveys/{owner_id}/results/regenerate [post]
func (h *ResultHandler) RegenerateResults(c *gin.Context) {
	ownerID := h.parseIDParam(c, "owner_id")
	if ownerID == 0 {
		return
	}

	h.LogRequest(c, "Regenerating results", "owner_id", ownerID)

	summary, err := h.resultService.Regenerate(c.Request.Context(), ownerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ApplyManualGrade overrides scores on manually graded questions
// @Summary Apply manual grades
// @Tags results
// @Accept json
// @Produce json
// @Param id path uint true "Result ID"
// @Param grades body []services.ManualGrade true "Per-question score overrides"
// @Success 200 {object} models.Result
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /results/{id}/manual-grade [post]
func (h *ResultHandler) ApplyManualGrade(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var grades []services.ManualGrade
	if err := c.ShouldBindJSON(&grades); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	graderID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Applying manual grades", "result_id", id, "grader_id", graderID)

	result, err := h.resultService.ApplyManualGrade(c.Request.Context(), id, grades, graderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetResult returns one scored result
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

	h.LogRequest(c, "Getting result", "result_id", id)

	result, err := h.resultService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetResultsByOwner lists every result of one survey
// @Summary List results by survey
// @Tags results
// @Produce json
// @Param owner_id path uint true "Survey ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /surveys/{owner_id}/results [get]
func (h *ResultHandler) GetResultsByOwner(c *gin.Context) {
	ownerID := h.parseIDParam(c, "owner_id")
	if ownerID == 0 {
		return
	}

	h.LogRequest(c, "Listing results by survey", "owner_id", ownerID)

	results, err := h.resultService.GetByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: results})
}
