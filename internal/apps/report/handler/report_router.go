package handler

import "github.com/gin-gonic/gin"

// RegisterReportRoutes registers all report routes
func RegisterReportRoutes(router *gin.RouterGroup, handler *ReportHandler) {
	reports := router.Group("/reports")
	{
		reports.POST("/products", handler.SendProductReport)
		reports.POST("/low-stock", handler.SendLowStockAlert)
	}
}
