package httpapi

import (
	"net/http"
	"time"

	"disaster-platform/pkg/logger"
	"disaster-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// LookupRateLimit throttles lookup endpoints per actor with a Redis
// fixed window. The lookups front rate-limited upstreams, so the limit
// protects upstream quota rather than this service.
//
// Limiter unavailability degrades open: a Redis failure here must not take
// the lookup path down with it.
func LookupRateLimit(rdb *redis.Client, perMinute int) gin.HandlerFunc {
	if rdb == nil || perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := "ratelimit:lookup:" + c.GetString("actor_id")
		ok, err := utils.AllowRate(c.Request.Context(), rdb, key, perMinute, time.Minute)
		if err != nil {
			logger.FromGin(c).Warn("rate limiter unavailable", "err", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
