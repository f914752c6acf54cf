package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionRequest represents the session request payload
type SessionRequest struct {
	APIKey string `json:"api_key"`
}

// SessionResponse represents the session response
type SessionResponse struct {
	Token     string    `json:"token"`
	VaultID   string    `json:"vault_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateSession exchanges the API key for a session token
// POST /api/session
func (h *Handler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "code": "InvalidInput"})
			return
		}
	}

	if err := h.issuer.CheckAPIKey(req.APIKey); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key", "code": "Unauthorized"})
		return
	}

	token, expires, err := h.issuer.GenerateToken()
	if err != nil {
		h.log.Error("sign session token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token", "code": "InternalError"})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Token:     token,
		VaultID:   h.engine.VaultID(),
		ExpiresAt: expires,
	})
}
