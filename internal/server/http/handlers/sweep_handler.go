package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soletrea/atelier/internal/server/http/dto"
)

// SweepHandler exposes the expiry sweep as a maintenance endpoint.
type SweepHandler struct {
	facade SweepFacade
}

// NewSweepHandler constructs SweepHandler.
func NewSweepHandler(facade SweepFacade) *SweepHandler {
	return &SweepHandler{facade: facade}
}

// Trigger handles POST /api/internal/sweep.
func (h *SweepHandler) Trigger(c *gin.Context) {
	start := time.Now()
	report, err := h.facade.SweepExpired(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "sweep failed",
		})
		return
	}

	c.JSON(http.StatusOK, dto.SweepResponse{
		Processed:  report.Processed,
		Errors:     report.Errors,
		DurationMS: time.Since(start).Milliseconds(),
	})
}
