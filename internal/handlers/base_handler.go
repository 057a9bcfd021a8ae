package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
	"github.com/reospicespowders/product-backend-sub002/internal/services"
	"github.com/reospicespowders/product-backend-sub002/internal/utils"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse wraps successful payloads that carry extra context.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// BaseHandler carries the helpers every handler shares.
type BaseHandler struct {
	logger *slog.Logger
}

func NewBaseHandler(logger *slog.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a handler entry point. The request-scoped logger already
// carries the request id.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...interface{}) {
	utils.FromContext(c.Request.Context()).Info(msg, args...)
}

// parseIDParam parses a numeric path parameter, responding with 400 and
// returning 0 when it is malformed.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: "expected a positive integer, got " + raw,
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service-layer errors onto HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var permissionErr *services.PermissionError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErr.Error(),
		})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Permission denied",
			Details: permissionErr.Error(),
		})
	case errors.Is(err, services.ErrSurveyNotFound),
		errors.Is(err, services.ErrAttemptNotFound),
		errors.Is(err, services.ErrResultNotFound),
		repositories.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrNotManuallyGradable):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Question cannot be manually graded",
			Details: err.Error(),
		})
	default:
		h.logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
