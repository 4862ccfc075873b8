// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"studylink-service/internal/pkg/ratelimit"
	"studylink-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware enforces a fixed-window per-IP limit on a route group.
// A limiter outage fails open; availability beats strictness here.
func RateLimitMiddleware(limiter *ratelimit.Limiter, name string, max int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", name, c.ClientIP())

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, max, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		if !allowed {
			response.Error(c, http.StatusTooManyRequests, "too many requests", nil)
			return
		}

		c.Next()
	}
}
