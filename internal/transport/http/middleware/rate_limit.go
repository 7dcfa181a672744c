package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/core/port"
)

// IntakeRateLimit limits inbound webhook registrations per client IP.
// Limiter outages fail open: dropping a webhook because Redis is down
// would defeat the point of the intake surface.
func IntakeRateLimit(limiter port.IntakeLimiter, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 || window <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), ip, limit, window)
		if err != nil {
			log.Warn("intake rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				newErrorResponse(c, "rate limit exceeded"))
			return
		}

		c.Next()
	}
}
