package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/hybridation-api/internal/config"
)

type HealthHandler struct {
	flags config.Flags
}

func NewHealthHandler(flags config.Flags) *HealthHandler {
	return &HealthHandler{flags: flags}
}

// Root is the minimal liveness probe.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": ServiceName,
		"version": ServiceVersion,
	})
}

// HealthCheck reports the enabled features and which provider keys are set.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": ServiceVersion,
		"features": gin.H{
			"360_panorama":    true,
			"visual_shopping": true,
		},
		"config": h.flags,
	})
}
