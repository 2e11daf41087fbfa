package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"inventory-backend/internal/apps/report/models"
	"inventory-backend/internal/apps/report/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler handles HTTP endpoints for emailed reports
type ReportHandler struct {
	service service.ReportService
	log     *slog.Logger
}

// NewReportHandler creates a new instance of ReportHandler
func NewReportHandler(service service.ReportService, log *slog.Logger) *ReportHandler {
	return &ReportHandler{service: service, log: log}
}

func (h *ReportHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoProducts):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDeliveryFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": service.ErrDeliveryFailed.Error()})
	default:
		h.log.Error("report_request_failed", slog.String("path", c.FullPath()), slog.String("reason", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// SendProductReport handles POST /api/v1/reports/products
func (h *ReportHandler) SendProductReport(c *gin.Context) {
	var req models.SendReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.SendProductReport(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// SendLowStockAlert handles POST /api/v1/reports/low-stock
func (h *ReportHandler) SendLowStockAlert(c *gin.Context) {
	var req models.SendReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.SendLowStockAlert(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
