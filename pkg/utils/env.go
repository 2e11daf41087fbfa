package utils

import "strings"

// NormalizeEnvironment returns the normalized deployment environment for a GO_ENV value
// GO_ENV=prod or production → prod
// Empty → dev
// Any other value is returned lowercased
func NormalizeEnvironment(goEnv string) string {
	goEnv = strings.ToLower(strings.TrimSpace(goEnv))
	switch goEnv {
	case "prod", "production":
		return "prod"
	case "":
		return "dev"
	}
	return goEnv
}

// IsProduction reports whether env selects the production environment
func IsProduction(env string) bool {
	return NormalizeEnvironment(env) == "prod"
}
