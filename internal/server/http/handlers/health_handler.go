package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwangikib/coursepay/internal/server/http/dto"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	facade HealthFacade
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(facade HealthFacade) *HealthHandler {
	return &HealthHandler{facade: facade}
}

// Healthz handles GET /healthz with a storage ping.
func (h *HealthHandler) Healthz(c *gin.Context) {
	if err := h.facade.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "storage unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
