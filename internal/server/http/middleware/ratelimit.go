package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soletrea/atelier/internal/ratelimit"
)

// RateLimit applies the given preset keyed by client IP. Limit headers
// are set on every response so clients can pace themselves.
func RateLimit(limiter ratelimit.Limiter, preset ratelimit.Preset) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := preset.Check(c.Request.Context(), limiter, c.ClientIP())
		SetRateLimitHeaders(c, decision)

		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "RATE_LIMITED",
				"message": "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}

// SetRateLimitHeaders writes the standard limit headers for a decision.
func SetRateLimitHeaders(c *gin.Context, d ratelimit.Decision) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if !d.Allowed {
		// Round up so a sub-second wait never advertises zero.
		retry := int(math.Ceil(d.RetryAfter.Seconds()))
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
	}
}
