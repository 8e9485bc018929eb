package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit creates a middleware that bounds how often the wrapped routes
// may be hit. All clients share one token bucket.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			requestID := GetRequestID(c)

			if log := GetLogger(c); log != nil {
				log.Warn("Request rate limited", map[string]interface{}{
					"path": c.Request.URL.Path,
					"ip":   c.ClientIP(),
				})
			}

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":       "RATE_LIMITED",
					"message":    "Too many report runs, try again shortly",
					"request_id": requestID,
				},
			})
			return
		}

		c.Next()
	}
}
