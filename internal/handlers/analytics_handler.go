package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/services"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// Analyze aggregates results across one or many surveys
// @Summary Cross-survey analytics
// @Description Attendance, grade distribution, worst questions, durations, per-band averages and multi-takers
// @Tags analytics
// @Produce json
// @Param owner_ids query string true "Comma-separated survey IDs"
// @Success 200 {object} services.AnalyticsBundle
// @Failure 400 {object} ErrorResponse
// @Router /analytics [get]
func (h *AnalyticsHandler) Analyze(c *gin.Context) {
	ownerIDs, err := parseOwnerIDs(c.Query("owner_ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid owner_ids parameter",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Computing analytics", "owner_ids", ownerIDs)

	bundle, err := h.analyticsService.Analyze(c.Request.Context(), ownerIDs)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bundle)
}

// GetReducedResults collapses multiple attempts per respondent
// @Summary Reduced results
// @Description One result per respondent under the given policy (highest, lowest, latest, earliest)
// @Tags analytics
// @Produce json
// @Param owner_id path uint true "Survey ID"
// @Param policy query string false "Reduce policy; empty returns all results"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /surveys/{owner_id}/results/reduced [get]
func (h *AnalyticsHandler) GetReducedResults(c *gin.Context) {
	ownerID := h.parseIDParam(c, "owner_id")
	if ownerID == 0 {
		return
	}

	policy := models.ReducePolicy(c.Query("policy"))

	h.LogRequest(c, "Reducing results", "owner_id", ownerID, "policy", policy)

	results, err := h.analyticsService.ReducedResults(c.Request.Context(), ownerID, policy)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: results})
}

func parseOwnerIDs(raw string) ([]uint, error) {
	ids := make([]uint, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
