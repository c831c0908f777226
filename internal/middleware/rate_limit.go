// internal/middleware/rate_limit.go
package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/querylab/internal/config"
	"github.com/javajoker/querylab/internal/utils"
)

const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}
}

// Run evicts idle visitors every minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanupVisitors(time.Now())
		}
	}
}

func (rl *RateLimiter) cleanupVisitors(now time.Time) {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getVisitor(c.ClientIP())

		if !limiter.Allow() {
			utils.TooManyRequestsResponse(c)
			return
		}

		c.Next()
	}
}

// Limiters holds the general limiter and the stricter one for the slow routes.
type Limiters struct {
	General *RateLimiter
	Slow    *RateLimiter
}

// NewLimiters builds both limiters from config. It returns nil when rate limiting is off.
func NewLimiters(cfg config.RateLimitConfig) *Limiters {
	if !cfg.Enabled {
		return nil
	}
	return &Limiters{
		General: NewRateLimiter(rate.Limit(cfg.PerSecond), cfg.Burst),
		Slow:    NewRateLimiter(rate.Limit(cfg.SlowPerMinute/60), cfg.SlowBurst),
	}
}

func (l *Limiters) Run(ctx context.Context) {
	if l == nil {
		return
	}
	go l.General.Run(ctx)
	go l.Slow.Run(ctx)
}

func (l *Limiters) GeneralRateLimit() gin.HandlerFunc {
	if l == nil {
		return passThrough
	}
	return l.General.Middleware()
}

func (l *Limiters) SlowQueryRateLimit() gin.HandlerFunc {
	if l == nil {
		return passThrough
	}
	return l.Slow.Middleware()
}

func passThrough(c *gin.Context) {
	c.Next()
}
