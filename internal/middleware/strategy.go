// internal/middleware/strategy.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/querylab/internal/services"
)

const (
	HeaderQueryStrategy = "X-Query-Strategy"

	strategyKey = "query_strategy"
)

// QueryStrategy tags every response in a route group with the strategy that serves it.
func QueryStrategy(strategy services.Strategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(strategyKey, string(strategy))
		c.Header(HeaderQueryStrategy, string(strategy))
		c.Next()
	}
}
