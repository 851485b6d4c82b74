// internal/middleware/cors.go
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/awingconnect/license-server/internal/config"
)

// CORS allows every origin when the list contains "*". Credentials are only
// allowed for an explicit origin list.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader, "X-Total-Count", "X-Page", "X-Per-Page", "X-Total-Pages"},
		MaxAge:        12 * time.Hour,
	}

	if allowsAll(cfg.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	return cors.New(corsConfig)
}

func allowsAll(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
