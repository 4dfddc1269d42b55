package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/stratoslabs/dircore/pkg/logger"
)

// UnknownUserID is logged when a request carries no authenticated identity
const UnknownUserID = "anonymous"

// RequestLogger logs HTTP requests through the structured logger
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		userID := UnknownUserID
		if param.Keys != nil {
			if uid, exists := param.Keys["user_id"]; exists {
				if s, ok := uid.(string); ok && s != "" {
					userID = s
				}
			}
		}

		fields := []interface{}{
			"method", param.Method,
			"path", param.Path,
			"status", param.StatusCode,
			"latency", param.Latency,
			"client_ip", param.ClientIP,
			"user_id", userID,
			"request_id", param.Request.Header.Get("X-Request-ID"),
		}
		if param.ErrorMessage != "" {
			fields = append(fields, "error", param.ErrorMessage)
		}

		switch {
		case param.StatusCode >= 500:
			log.Error("HTTP Request", fields...)
		case param.StatusCode >= 400:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}

		// The structured logger already wrote the entry; gin needs nothing.
		return ""
	})
}
