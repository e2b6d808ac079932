// internal/middleware/cors.go
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/goldenrice/rice-backend/internal/idempotency"
)

// CORS allows the configured storefront and admin origins. A "*" entry allows any origin
// without credentials.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "Accept-Language",
			RequestIDHeader, idempotency.HeaderName,
		},
		ExposeHeaders: []string{
			"Content-Length", RequestIDHeader, idempotency.ReplayHeader,
			"X-Total-Count", "X-Total-Pages", "X-Page", "X-Per-Page",
		},
		MaxAge: 12 * time.Hour,
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
