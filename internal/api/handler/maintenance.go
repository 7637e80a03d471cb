package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cleanup triggers the periodic sweep. Invoked by an external scheduler
// (hourly cron) with the shared maintenance key.
func (h *Handler) Cleanup(c *gin.Context) {
	if h.MaintenanceKey == "" || c.GetHeader("X-Maintenance-Key") != h.MaintenanceKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.Engine.Sweep(c.Request.Context())
	if err != nil {
		h.abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"cleaned_at": time.Now().UTC().Format(time.RFC3339),
		"removed":    res,
	})
}
