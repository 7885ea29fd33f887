package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/sftpdrive/pkg/errors"
	"github.com/charlesng35/sftpdrive/pkg/logger"
	"github.com/charlesng35/sftpdrive/pkg/metrics"
	"github.com/charlesng35/sftpdrive/pkg/response"
)

// RateLimit limits requests per (client, route) within a fixed window. The client is the
// token subject when authenticated, otherwise the remote IP. A nil store uses process memory.
func RateLimit(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	if store == nil {
		store = NewMemoryRateStore()
	}

	return func(c *gin.Context) {
		if maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		client := c.GetString(CtxSubjectKey)
		if client == "" {
			client = c.ClientIP()
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		count, ttl, err := store.Increment(c.Request.Context(), client+"|"+route, window)
		if err != nil {
			// Fail open rather than rejecting traffic because of a limiter fault.
			logger.WithModule("http").Warn("rate limit store failed", zap.Error(err))
			c.Next()
			return
		}

		remaining := maxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if count > maxRequests {
			metrics.RateLimited.WithLabelValues(route).Inc()
			response.Error(c, errors.ErrTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}
