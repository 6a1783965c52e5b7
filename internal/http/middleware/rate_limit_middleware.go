package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/you/blogauth/domain"
)

// RateLimit rejects requests whose client IP exhausted the limiter's budget.
// Per-email limits live in the service layer; this guard only throttles raw
// request volume per origin.
func RateLimit(limiter domain.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := limiter.Consume(c.ClientIP()); err != nil {
			var rl *domain.RateLimitedError
			if errors.As(err, &rl) {
				c.Header("Retry-After", strconv.Itoa(rl.RetryAfterSeconds()))
			}
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}
