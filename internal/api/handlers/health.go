package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/bestxi/internal/services"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping() error
}

type HealthHandler struct {
	db    Pinger
	cache *services.ResultCache
}

func NewHealthHandler(db Pinger, cache *services.ResultCache) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// GetHealth returns basic health status - always returns 200 if server is running
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "bestxi",
	})
}

// GetReady reports 200 once the database answers. Redis is optional:
// the optimizer runs without a cache, so it only degrades the status.
func (h *HealthHandler) GetReady(c *gin.Context) {
	checks := gin.H{}
	ready := true

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = "degraded: " + err.Error()
		} else {
			checks["cache"] = "ok"
		}
		checks["cache_breaker"] = h.cache.State().String()
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
