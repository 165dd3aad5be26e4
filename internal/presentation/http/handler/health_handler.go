package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by anything the health check should probe
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and, when a database is configured, readiness
type HealthHandler struct {
	name string
	db   Pinger
}

// NewHealthHandler creates a health handler; db may be nil
func NewHealthHandler(name string, db Pinger) *HealthHandler {
	return &HealthHandler{name: name, db: db}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status, code := "ok", http.StatusOK
	checks := gin.H{}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
			checks["database"] = err.Error()
		} else {
			checks["database"] = "ok"
		}
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": h.name,
		"checks":  checks,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
