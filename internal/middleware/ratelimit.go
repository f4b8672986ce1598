package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
)

// Limiter counts attempts per key within a window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects callers, keyed by client IP, once the limiter says so.
// A limiter error lets the request through.
func RateLimit(l Limiter, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		if !ok {
			abort(c, apperr.RateLimited(message))
			return
		}
		c.Next()
	}
}
