package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reospicespowders/product-backend-sub002/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportResults streams one survey's results as an xlsx workbook
// @Summary Export survey results
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param owner_id path uint true "Survey ID"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /surveys/{owner_id}/results/export [get]
func (h *ExportHandler) ExportResults(c *gin.Context) {
	ownerID := h.parseIDParam(c, "owner_id")
	if ownerID == 0 {
		return
	}

	h.LogRequest(c, "Exporting results", "owner_id", ownerID)

	workbook, err := h.exportService.ExportOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("results-%d.xlsx", ownerID)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, workbook)
}
