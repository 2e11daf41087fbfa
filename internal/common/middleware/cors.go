package middleware

import (
	"errors"
	"strings"
	"time"

	"inventory-backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ErrMissingOrigins is returned when production runs without an explicit origin list
var ErrMissingOrigins = errors.New("CORS_ALLOWED_ORIGINS must be set in production")

// SetupCORS configures CORS middleware with environment-specific settings
func SetupCORS(env, origins string) (gin.HandlerFunc, error) {
	allowOrigins, err := getAllowedOrigins(env, origins)
	if err != nil {
		return nil, err
	}

	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}), nil
}

func getAllowedOrigins(env, origins string) ([]string, error) {
	if parsed := parseOrigins(origins); len(parsed) > 0 {
		return parsed, nil
	}

	if utils.IsProduction(env) {
		return nil, ErrMissingOrigins
	}

	return []string{"*"}, nil
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	var result []string

	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
