package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/setuphub/setuphub/internal/config"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per caller. Authenticated callers
// are keyed by user id, anonymous ones by client IP.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a limiter from config
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / 60),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether key may make another request now
func (l *RateLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// Middleware returns the gin handler. Place it after authentication.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := "60"
	if l.limit > 0 {
		retryAfter = strconv.Itoa(int(1/float64(l.limit)) + 1)
	}

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if user := GetUserFromContext(c); user != nil {
			key = "user:" + user.ID.String()
		}

		if !l.Allow(key) {
			err := apperrors.TooManyRequests("")
			_ = c.Error(err)
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(err.HTTPStatus(), gin.H{
				"error":   "too_many_requests",
				"message": err.Message,
			})
			return
		}
		c.Next()
	}
}
