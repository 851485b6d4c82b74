// internal/middleware/rate_limit.go
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/awingconnect/license-server/internal/config"
	"github.com/awingconnect/license-server/internal/utils"
)

const (
	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Idle visitors are
// swept while handling requests, at most once per cleanupInterval.
type RateLimiter struct {
	visitors    map[string]*visitor
	mtx         sync.Mutex
	rate        rate.Limit
	burst       int
	lastCleanup time.Time
	now         func() time.Time
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		now:      time.Now,
	}
}

// PerMinute allows n requests a minute with a burst of n.
func PerMinute(n int) *RateLimiter {
	return NewRateLimiter(rate.Limit(float64(n)/60), n)
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) >= cleanupInterval {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, key)
			}
		}
		rl.lastCleanup = now
	}

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, now}
		return limiter
	}

	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) visitorCount() int {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getVisitor(c.ClientIP())
		if !limiter.AllowN(rl.now(), 1) {
			c.Header("Retry-After", "60")
			utils.TooManyRequestsResponse(c)
			return
		}

		c.Next()
	}
}

// RateLimiters groups the limiters applied by the router.
type RateLimiters struct {
	General *RateLimiter
	Login   *RateLimiter
	Check   *RateLimiter
}

func NewRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	return &RateLimiters{
		General: NewRateLimiter(rate.Limit(cfg.GeneralPerSecond), cfg.GeneralBurst),
		Login:   PerMinute(cfg.LoginPerMinute),
		Check:   PerMinute(cfg.CheckPerMinute),
	}
}
