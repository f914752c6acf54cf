package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vault-planning/internal/auth"
)

// ContextVaultID is the gin context key holding the authenticated vault ID.
const ContextVaultID = "vault_id"

// JWTAuthMiddleware validates the session token in the Authorization header
func JWTAuthMiddleware(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		// browsers cannot set headers on websocket upgrades
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
				"code":  "Unauthorized",
			})
			return
		}

		claims, err := issuer.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  "Unauthorized",
			})
			return
		}

		c.Set(ContextVaultID, claims.VaultID)
		c.Next()
	}
}
