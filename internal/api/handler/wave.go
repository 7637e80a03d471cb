package handler

import (
	"net/http"

	"echogo/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type waveRequest struct {
	TargetEphemeralToken string `json:"target_ephemeral_token" binding:"required"`
	// Action multiplexes undo onto the same endpoint, as "undo".
	Action string `json:"action"`
}

// SendWave runs the wave/undo operation for the authenticated account.
func (h *Handler) SendWave(c *gin.Context) {
	var req waveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": models.StatusError, "reason": "invalid_request"})
		return
	}

	userID := currentUser(c)

	if req.Action == "undo" {
		if err := h.Engine.UndoWave(c.Request.Context(), userID, req.TargetEphemeralToken); err != nil {
			h.abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": models.StatusUndone})
		return
	}

	out, err := h.Engine.SendWave(c.Request.Context(), userID, req.TargetEphemeralToken)
	if err != nil {
		h.abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// IssueToken rotates the account's ephemeral token.
func (h *Handler) IssueToken(c *gin.Context) {
	row, err := h.Engine.IssueToken(c.Request.Context(), currentUser(c))
	if err != nil {
		h.abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": row.Token, "expires_at": row.ExpiresAt})
}
