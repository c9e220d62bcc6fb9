package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mira/api/internal/database"
)

// NATSChecker reports the liveness of the event-bus connection
type NATSChecker interface {
	Connected() bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db    *database.Postgres
	redis *database.Redis
	nats  NATSChecker
}

// NewHealthHandler creates a new health handler. nats may be nil when review
// notifications are disabled.
func NewHealthHandler(db *database.Postgres, redis *database.Redis, nats NATSChecker) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, nats: nats}
}

// HealthResponse represents the deep health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "mira-api",
		"version": "0.1.0",
	})
}

// DeepHealth returns health status with dependency checks
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	allHealthy := true

	if h.db != nil {
		if err := h.db.Pool().Ping(ctx); err != nil {
			deps["database"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			deps["database"] = "healthy"
		}
	} else {
		deps["database"] = "not configured"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			deps["redis"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			deps["redis"] = "healthy"
		}
	} else {
		deps["redis"] = "not configured"
	}

	// NATS only carries best-effort review notifications, so a dropped
	// connection reports as degraded without failing the check.
	if h.nats != nil {
		if h.nats.Connected() {
			deps["nats"] = "healthy"
		} else {
			deps["nats"] = "disconnected"
		}
	} else {
		deps["nats"] = "not configured"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:       status,
		Service:      "mira-api",
		Version:      "0.1.0",
		Dependencies: deps,
	})
}
