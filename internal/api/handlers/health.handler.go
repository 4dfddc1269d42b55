package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stratoslabs/dircore/internal/repo/directory"
	"github.com/stratoslabs/dircore/pkg/cache"
	"github.com/stratoslabs/dircore/pkg/logger"
)

type HealthHandler struct {
	store   directory.Store
	cache   cache.Valkey
	version string
	logger  logger.Logger
}

func NewHealthHandler(store directory.Store, c cache.Valkey, version string, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		cache:   c,
		version: version,
		logger:  logger,
	}
}

// GET /health - Quick health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "dircore",
		"version":   h.version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /ready - Readiness check against the store and cache. A degraded cache
// does not fail readiness; an unreachable store does.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := gin.H{
		"status":    "healthy",
		"service":   "dircore",
		"version":   h.version,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	httpStatus := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		resp["status"] = "unhealthy"
		resp["error"] = err.Error()
		httpStatus = http.StatusServiceUnavailable
	}

	if err := h.cache.HealthCheck(ctx); err != nil {
		resp["cache"] = "degraded"
	} else {
		resp["cache"] = "healthy"
	}

	c.JSON(httpStatus, resp)
}
