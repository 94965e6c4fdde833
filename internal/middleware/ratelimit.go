package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/studyverse/backend/internal/ratelimit"
)

// RateLimit limits an authenticated action per user. Limiter errors let
// the request through.
func RateLimit(limiter ratelimit.Limiter, action string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP()
		if uid, ok := c.Get(ContextUserID); ok {
			key = fmt.Sprint(uid)
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), action, key, limit, window)
		if err != nil {
			Logger(c).WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			secs := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests, slow down.",
				"retry_after": secs,
			})
			return
		}
		c.Next()
	}
}
