package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

// CreateSession bootstraps an anonymous account: a fresh UUID, a profile
// row, and an HS256 session token. Clients call it once and again whenever
// their stored session has fully expired.
func (h *Handler) CreateSession(c *gin.Context) {
	userID := uuid.New().String()

	if err := h.Store.EnsureProfile(c.Request.Context(), userID, true); err != nil {
		h.abortWith(c, err)
		return
	}

	token, err := h.signSession(userID)
	if err != nil {
		h.abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": userID})
}

func (h *Handler) signSession(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    "echo-service",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.SessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.JWTSecret)
}

// AuthRequired validates the Bearer session token and stores the account
// id on the context. Websocket clients may pass the token as a query
// parameter instead, since browsers cannot set headers on the upgrade.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token missing"})
			return
		}

		userID, err := h.parseSession(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func (h *Handler) parseSession(raw string) (string, error) {
	tok, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return h.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims := tok.Claims.(*jwt.RegisteredClaims)
	return claims.Subject, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
