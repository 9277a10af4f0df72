package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdforge/core/internal/pkg/response"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitRule caps requests per client within a fixed window.
type RateLimitRule struct {
	Name   string
	Max    int64
	Window time.Duration
}

// DefaultRateLimit applies to every route.
var DefaultRateLimit = RateLimitRule{Name: "global", Max: 50, Window: time.Second}

// GenerateRateLimit guards the paid completion endpoint per user.
var GenerateRateLimit = RateLimitRule{Name: "generate", Max: 10, Window: time.Minute}

// RateLimit counts requests per window in Redis and answers 429 above rule.Max.
// Authenticated requests are keyed by user, anonymous ones by client IP.
// Redis failures let the request through.
func RateLimit(rdb *redis.Client, rule RateLimitRule, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := CurrentUserID(c)
		if subject == "" {
			subject = c.ClientIP()
		}
		if subject == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		bucket := time.Now().UnixNano() / int64(rule.Window)
		key := fmt.Sprintf("jd:rate_limit:%s:%s:%d", rule.Name, subject, bucket)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn("rate limit unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, rule.Window+time.Second)
		}
		if count > rule.Max {
			c.Header("Retry-After", fmt.Sprintf("%d", int(rule.Window.Seconds())+1))
			response.TooManyRequests(c, "Too many requests, please slow down.")
			return
		}
		c.Next()
	}
}
