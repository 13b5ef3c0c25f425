package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports process liveness and which audit store is in use.
type HealthHandler struct {
	auditStore string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(auditStore string) *HealthHandler {
	return &HealthHandler{auditStore: auditStore}
}

// Health handles the health check.
// @Summary     Health check
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "audit_store": h.auditStore})
}
