package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soletrea/atelier/internal/ratelimit"
)

// HealthHandler reports service readiness.
type HealthHandler struct {
	pinger  Pinger
	limiter ratelimit.Limiter
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(pinger Pinger, limiter ratelimit.Limiter) *HealthHandler {
	return &HealthHandler{pinger: pinger, limiter: limiter}
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	db := "ok"
	if err := h.pinger.HealthCheck(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		db = "unreachable"
	}

	limiterState := "ok"
	if d, ok := h.limiter.(interface{ Degraded() bool }); ok && d.Degraded() {
		limiterState = "degraded"
	}

	c.JSON(status, gin.H{
		"database":     db,
		"rate_limiter": limiterState,
	})
}
