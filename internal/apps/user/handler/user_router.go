package handler

import "github.com/gin-gonic/gin"

// RegisterUserRoutes registers all user-related routes. Registration and login
// go on the public group, account management on the admin group.
func RegisterUserRoutes(public, admin *gin.RouterGroup, handler *UserHandler) {
	users := public.Group("/users")
	{
		users.POST("/register", handler.Register)
		users.POST("/login", handler.Login)
	}

	managed := admin.Group("/users")
	{
		managed.GET("/all", handler.ListAllUsers)
		managed.GET("/:id", handler.GetUser)
		managed.DELETE("/:id", handler.DeleteUser)
	}
}
