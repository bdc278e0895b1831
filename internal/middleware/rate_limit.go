package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/Dhoini/publishing-platform/pkg/res"
	"github.com/gin-gonic/gin"
)

// Limiter решает, укладывается ли запрос в лимит
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RateLimit ограничивает частоту запросов с одного IP.
// Если хранилище лимитов недоступно, запрос пропускается.
func RateLimit(limiter Limiter, scope string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warnw("Rate limiter unavailable, request allowed", "scope", scope, "error", err)
			c.Next()
			return
		}
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			log.Infow("Rate limit exceeded", "scope", scope, "clientIP", c.ClientIP())
			res.JsonResponse(c.Writer, res.ErrorResponse{
				Error:     "Too many requests",
				ErrorCode: http.StatusTooManyRequests,
			}, http.StatusTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
