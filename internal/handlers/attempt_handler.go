package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reospicespowders/product-backend-sub002/internal/services"
	"github.com/reospicespowders/product-backend-sub002/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *validator.Validator,
	logger *slog.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// SubmitAttempt ingests one raw submission
// @Summary Submit survey attempt
// @Description Stores a submission snapshot and materializes its scored result
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body services.SubmitAttemptRequest true "Submission data"
// @Success 201 {object} models.Attempt
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /attempts [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	h.LogRequest(c, "Submitting survey attempt")

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	attempt, err := h.attemptService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// GetAttempt returns one stored attempt
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.Attempt
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting attempt", "attempt_id", id)

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetAttemptsByOwner lists every attempt of one survey
// @Summary List attempts by survey
// @Tags attempts
// @Produce json
// @Param owner_id path uint true "Survey ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /surveys/{owner_id}/attempts [get]
func (h *AttemptHandler) GetAttemptsByOwner(c *gin.Context) {
	ownerID := h.parseIDParam(c, "owner_id")
	if ownerID == 0 {
		return
	}

	h.LogRequest(c, "Listing attempts by survey", "owner_id", ownerID)

	attempts, err := h.attemptService.GetByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: attempts})
}
