package handler

import "github.com/gin-gonic/gin"

// RegisterProductRoutes registers all product routes. readers serves the
// read-only endpoints, writers the mutating ones.
func RegisterProductRoutes(readers, writers *gin.RouterGroup, handler *ProductHandler) {
	products := readers.Group("/products")
	{
		products.GET("", handler.ListProducts)
		products.GET("/low-stock", handler.ListLowStock)
		products.GET("/export", handler.ExportCSV)
		products.GET("/:id", handler.GetProduct)
	}

	admin := writers.Group("/products")
	{
		admin.POST("", handler.CreateProduct)
		admin.POST("/import", handler.ImportCSV)
		admin.PUT("/:id", handler.UpdateProduct)
		admin.DELETE("/:id", handler.DeleteProduct)
	}
}
