package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports backing-store reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health and ready checks.
type HealthHandler struct {
	academic Pinger
}

func NewHealthHandler(academic Pinger) *HealthHandler {
	return &HealthHandler{academic: academic}
}

// Health responds to GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "bbbapigl",
		"time":    time.Now().Unix(),
	})
}

// Ready responds to GET /ready (for k8s readiness).
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.academic != nil {
		if err := h.academic.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
