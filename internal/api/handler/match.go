package handler

import (
	"net/http"

	"echogo/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// RemoveMatch deletes a match the caller participates in.
func (h *Handler) RemoveMatch(c *gin.Context) {
	matchID := c.Param("id")
	if err := h.Engine.RemoveMatch(c.Request.Context(), currentUser(c), matchID); err != nil {
		h.abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusRemoved})
}

// ListMatches returns the caller's current matches, newest first.
func (h *Handler) ListMatches(c *gin.Context) {
	rows, err := h.Store.ListMatchesForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		h.abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": rows})
}
