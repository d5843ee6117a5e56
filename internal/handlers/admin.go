package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medibook-server/internal/service"
	"medibook-server/internal/utils"
)

// AdminHandler exposes the statistics dashboard and spreadsheet export.
type AdminHandler struct {
	Stats service.StatsService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(stats service.StatsService) *AdminHandler {
	return &AdminHandler{Stats: stats}
}

// GetStats returns appointment counts by status and specialization.
func (h *AdminHandler) GetStats(c *gin.Context) {
	summary, err := h.Stats.Summary()
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch statistics: "+err.Error())
		return
	}
	utils.Success(c, "Statistics fetched successfully", summary)
}

// ExportStats streams the appointment book as an xlsx download.
func (h *AdminHandler) ExportStats(c *gin.Context) {
	fileName := fmt.Sprintf("appointments-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)

	if err := h.Stats.ExportXLSX(c.Writer); err != nil {
		// Headers are already out; log-and-abort is all that is left.
		c.Error(err)
	}
}
