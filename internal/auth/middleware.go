package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyClientID is the gin context key holding the authenticated
// client id.
const ContextKeyClientID = "client_id"

// Middleware rejects requests without a valid bearer token and records the
// client id for handlers.
func Middleware(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization header format",
			})
			return
		}

		claims, err := manager.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.Set(ContextKeyClientID, claims.ClientID)
		c.Next()
	}
}

// ClientID returns the authenticated client id, or the fallback when auth
// is disabled.
func ClientID(c *gin.Context, fallback string) string {
	if id, ok := c.Get(ContextKeyClientID); ok {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
