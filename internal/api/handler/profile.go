package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	ContactHandle string `json:"contact_handle"`
}

// UpdateProfile sets (or clears) the opt-in contact handle revealed to
// matched counterparts.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.Store.SetContactHandle(c.Request.Context(), currentUser(c), req.ContactHandle); err != nil {
		h.abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type pushTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=ios android"`
}

// RegisterPushToken stores a device token for push delivery.
func (h *Handler) RegisterPushToken(c *gin.Context) {
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.Store.SavePushToken(c.Request.Context(), currentUser(c), req.Token, req.Platform); err != nil {
		h.abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
