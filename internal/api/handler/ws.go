package handler

import (
	"net/http"

	"echogo/backend/internal/models"
	"echogo/backend/internal/wavehub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Mobile clients connect from app contexts without a meaningful Origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and hands it to the hub as the
// account's realtime channel.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
		return
	}

	client := &wavehub.WebSocketClient{
		UserID: currentUser(c),
		Conn:   conn,
		Hub:    h.Hub,
		Send:   make(chan models.Event, 256),
		Log:    h.Log,
	}
	h.Hub.RegisterCh <- client
}
