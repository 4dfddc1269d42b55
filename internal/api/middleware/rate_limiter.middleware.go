package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stratoslabs/dircore/internal/config"
	"github.com/stratoslabs/dircore/pkg/cache"
)

// AnonymousTenantID buckets unauthenticated and unscoped requests
const AnonymousTenantID = "anonymous"

// RateLimiter implements per-tenant rate limiting with fixed one-minute
// windows counted in Valkey. Counter failures fail open.
func RateLimiter(valkeyCache cache.Valkey, cfg config.RateLimitConfig) gin.HandlerFunc {
	maxRequests := int64(cfg.RequestsPerMinute)

	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = AnonymousTenantID
		}

		window := time.Now().Unix() / 60
		key := fmt.Sprintf("rate_limit:%s:%d", tenantID, window)

		var currentCount int64
		if countBytes, err := valkeyCache.Get(c.Request.Context(), key); err == nil {
			if count, err := strconv.ParseInt(string(countBytes), 10, 64); err == nil {
				currentCount = count
			}
		}

		if currentCount >= maxRequests {
			c.Header("X-Rate-Limit-Limit", strconv.FormatInt(maxRequests, 10))
			c.Header("X-Rate-Limit-Remaining", "0")
			c.Header("X-Rate-Limit-Reset", strconv.FormatInt((window+1)*60, 10))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":      "error",
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		newCount := currentCount + 1
		_ = valkeyCache.Set(c.Request.Context(), key, strconv.FormatInt(newCount, 10), 2*time.Minute)

		c.Header("X-Rate-Limit-Limit", strconv.FormatInt(maxRequests, 10))
		c.Header("X-Rate-Limit-Remaining", strconv.FormatInt(maxRequests-newCount, 10))
		c.Header("X-Rate-Limit-Reset", strconv.FormatInt((window+1)*60, 10))

		c.Next()
	}
}
