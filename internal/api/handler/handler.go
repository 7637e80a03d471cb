// Package handler wires the HTTP surface: anonymous session bootstrap,
// token rotation, waves, matches, push registration, the websocket
// upgrade, and the maintenance trigger.
package handler

import (
	"errors"
	"net/http"
	"time"

	"echogo/backend/internal/errs"
	"echogo/backend/internal/models"
	"echogo/backend/internal/storage"
	"echogo/backend/internal/wave"
	"echogo/backend/internal/wavehub"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Engine *wave.Service
	Hub    *wavehub.Hub
	Store  storage.Storage

	JWTSecret      []byte
	SessionTTL     time.Duration
	MaintenanceKey string

	Log *zap.Logger
}

func New(engine *wave.Service, hub *wavehub.Hub, store storage.Storage, secret []byte, sessionTTL time.Duration, maintenanceKey string, log *zap.Logger) *Handler {
	return &Handler{
		Engine:         engine,
		Hub:            hub,
		Store:          store,
		JWTSecret:      secret,
		SessionTTL:     sessionTTL,
		MaintenanceKey: maintenanceKey,
		Log:            log,
	}
}

// Routes registers all endpoints on the router.
func (h *Handler) Routes(r *gin.Engine) {
	r.POST("/session", h.CreateSession)

	authed := r.Group("/", h.AuthRequired())
	authed.POST("/token", h.IssueToken)
	authed.POST("/wave", h.SendWave)
	authed.GET("/matches", h.ListMatches)
	authed.DELETE("/matches/:id", h.RemoveMatch)
	authed.PATCH("/profile", h.UpdateProfile)
	authed.POST("/push-token", h.RegisterPushToken)
	authed.GET("/ws", h.ServeWebSocket)

	r.POST("/internal/cleanup", h.Cleanup)
}

// abortWith maps sentinel errors onto HTTP statuses and the stable
// {status, reason} body clients reconcile against.
func (h *Handler) abortWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"status": models.StatusError, "reason": "invalid_token"})
	case errors.Is(err, errs.ErrUndoExpired):
		c.JSON(http.StatusBadRequest, gin.H{"status": models.StatusError, "reason": "undo_expired"})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": models.StatusError, "reason": "not_found"})
	case errors.Is(err, errs.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"status": models.StatusError, "reason": "unauthenticated"})
	case errors.Is(err, errs.ErrTxConflict):
		// Concurrent waving collided; the client replays the request.
		c.JSON(http.StatusConflict, gin.H{"status": models.StatusError, "reason": "conflict"})
	default:
		h.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": models.StatusError, "reason": "internal"})
	}
}
