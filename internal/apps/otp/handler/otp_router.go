package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterOTPRoutes registers all OTP routes
func RegisterOTPRoutes(router *gin.RouterGroup, emailOTPHandler *EmailOTPHandler) {
	otp := router.Group("/otp")
	{
		email := otp.Group("/email")
		{
			email.POST("", emailOTPHandler.CreateOrUpdateOTP)
			email.POST("/verify", emailOTPHandler.VerifyOTP)
		}
	}
}
