package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invoiceview/internal/port"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	client  port.ExtractionClient
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(client port.ExtractionClient, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{client: client, timeout: timeout}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The service is ready when the extraction
// service answers its health endpoint.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.client.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "extraction service not reachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
