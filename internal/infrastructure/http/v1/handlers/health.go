// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesboard/internal/infrastructure/cache"
	"salesboard/internal/infrastructure/storage/postgres"
)

// Pinger checks that a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	source  Pinger
	pool    *postgres.Pool       // nil for file-backed sources
	cache   *cache.AnalysisCache // nil when caching is off
	version string
}

// NewHealthHandler creates a new health handler. pool and cache may be nil.
func NewHealthHandler(source Pinger, pool *postgres.Pool, c *cache.AnalysisCache, version string) *HealthHandler {
	return &HealthHandler{source: source, pool: pool, cache: c, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (can the sales source be read?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.source.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"source": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"source": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"app":     "salesboard",
		"version": h.version,
	}
	if h.pool != nil {
		info["database"] = h.pool.Stats()
	}
	if h.cache != nil {
		info["cache"] = h.cache.GetStats()
	}
	c.JSON(http.StatusOK, info)
}
