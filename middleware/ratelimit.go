package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/ariebrainware/heart-risk/config"
	"github.com/ariebrainware/heart-risk/util"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	// Rate limiting defaults
	defaultRateLimit  = 5                // 5 attempts
	defaultRateWindow = 15 * time.Minute // per 15 minutes
)

// RateLimitConfig holds configuration for rate limiting. OnLimit answers a
// rejected request; the default is a JSON 429.
type RateLimitConfig struct {
	Limit   int
	Window  time.Duration
	OnLimit gin.HandlerFunc
}

// Limiter counts requests per path and client IP. Counters live in Redis
// when a client is configured, otherwise in a process-local cache.
type Limiter struct {
	cfg   RateLimitConfig
	local *cache.Cache
}

// NewLimiter applies the defaults to cfg and returns a Limiter.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.Limit == 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window == 0 {
		cfg.Window = defaultRateWindow
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = tooManyRequestsJSON
	}
	return &Limiter{cfg: cfg, local: cache.New(cfg.Window, 2*cfg.Window)}
}

// RateLimiter is shorthand for NewLimiter(cfg).Handler().
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	return NewLimiter(cfg).Handler()
}

func rateLimitKey(endpoint, clientIP string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)
}

func tooManyRequestsJSON(c *gin.Context) {
	util.CallTooManyRequests(c, util.APIErrorParams{
		Msg: "Too many requests. Please try again later.",
		Err: fmt.Errorf("rate limit exceeded"),
	})
}

// Handler returns the middleware enforcing the limit.
func (l *Limiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path
		key := rateLimitKey(endpoint, clientIP)

		var (
			allowed bool
			err     error
		)
		if rdb := config.GetRedisClient(); rdb != nil {
			allowed, err = checkRateLimit(c.Request.Context(), rdb, key, l.cfg.Limit, l.cfg.Window)
		} else {
			allowed = checkLocalRateLimit(l.local, key, l.cfg.Limit, l.cfg.Window)
		}
		if err != nil {
			// If rate limiting fails, log the error but allow the request
			// to prevent denial of service due to Redis unavailability
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventSuspiciousActivity,
				IP:        clientIP,
				Message:   fmt.Sprintf("Rate limit check failed: %v", err),
			})
			c.Next()
			return
		}

		if !allowed {
			util.LogRateLimitExceeded(clientIP, endpoint)
			l.cfg.OnLimit(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Reset clears the counter of a client for endpoint in every store, e.g.
// after a successful login.
func (l *Limiter) Reset(ctx context.Context, clientIP, endpoint string) error {
	key := rateLimitKey(endpoint, clientIP)
	l.local.Delete(key)
	if rdb := config.GetRedisClient(); rdb != nil {
		if err := rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("reset rate limit: %w", err)
		}
	}
	return nil
}

// checkRateLimit counts the request in Redis. The window starts with the
// first request for key. Returns true if allowed, false if the limit is exceeded.
func checkRateLimit(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, error) {
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return count <= int64(limit), nil
}

func checkLocalRateLimit(local *cache.Cache, key string, limit int, window time.Duration) bool {
	if err := local.Add(key, 1, window); err == nil {
		return limit >= 1
	}
	count, err := local.IncrementInt(key, 1)
	if err != nil {
		// Expired between Add and IncrementInt; start a new window.
		local.Set(key, 1, window)
		count = 1
	}
	return count <= limit
}
