// internal/middleware/cors.go
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var exposedHeaders = []string{
	HeaderRequestID,
	HeaderResponseTime,
	HeaderQueryStrategy,
	"X-Query-Warning",
	"X-Total-Count",
	"X-Page",
	"X-Per-Page",
	"X-Total-Pages",
}

// CORS allows the configured front end to call the API and read the side channel headers.
func CORS(frontendURL string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Language", HeaderRequestID},
		ExposeHeaders: exposedHeaders,
		MaxAge:        12 * time.Hour,
	}
	if frontendURL == "" || frontendURL == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{frontendURL}
	}
	return cors.New(cfg)
}
