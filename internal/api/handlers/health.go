package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/enerlind-render/odoo-agent/internal/api/dto"
)

// HealthHandler serves liveness and the authenticated Odoo ping.
type HealthHandler struct {
	gateway Gateway
}

// NewHealthHandler creates the handler.
func NewHealthHandler(gateway Gateway) *HealthHandler {
	return &HealthHandler{gateway: gateway}
}

// Healthz reports process liveness. No auth, no Odoo round trip.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ping authenticates against Odoo and reports the connected database and
// user.
func (h *HealthHandler) Ping(c *gin.Context) {
	if err := h.gateway.Ping(c.Request.Context()); err != nil {
		abortLedger(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PingResponse{
		OK:       true,
		Database: h.gateway.Database(),
		User:     h.gateway.User(),
	})
}
