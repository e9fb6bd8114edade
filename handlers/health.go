package handlers

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Students  *int      `json:"students,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// HealthHandler reports liveness and readiness.
type HealthHandler struct {
	students int
	ready    atomic.Bool
}

// NewHealthHandler creates a handler for a table of the given size. It
// starts out not ready.
func NewHealthHandler(students int) *HealthHandler {
	return &HealthHandler{students: students}
}

// SetReady marks the server as ready (or draining).
func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Health handles GET /healthz
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// Ready handles GET /readyz
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "not_ready",
			Timestamp: time.Now().UTC(),
			Reason:    "service is starting or shutting down",
		})
		return
	}
	students := h.students
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Students:  &students,
	})
}

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
