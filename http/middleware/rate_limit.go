package middlewares

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/utils"
	"github.com/gin-gonic/gin"
)

// WindowCounter is satisfied by *infra.RedisClient.
type WindowCounter interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitMiddleware counts requests per client IP in fixed windows. Counter
// errors let the request through.
func RateLimitMiddleware(counter WindowCounter, rule config.RateLimitRule, logger *infra.LoggerClient, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok || counter == nil || rule.Max <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		count, ttl, err := counter.IncrementWindow(ctx, rule.Prefix+c.ClientIP(), rule.Window)
		if err != nil {
			logger.WarningWithContextf(ctx, "[RateLimit] Counter unavailable, allowing request: %v", err)
			c.Next()
			return
		}

		resetSeconds := strconv.Itoa(int(math.Ceil(ttl.Seconds())))
		remaining := int64(rule.Max) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", resetSeconds)

		if count > int64(rule.Max) {
			logger.WarningWithContextf(ctx, "[RateLimit] Rate limit exceeded: IP=%s Route=%s", c.ClientIP(), rule.Prefix)
			c.Header("Retry-After", resetSeconds)
			utils.JSON429(c, rule.Message)
			return
		}

		c.Next()
	}
}
