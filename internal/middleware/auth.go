package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tejari49/timeroster/internal/auth"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyName   = "user_name"
)

// AuthMiddleware validates the Bearer token and stashes the verified caller
// identity in the request context. Handlers behind it can rely on GetUserID
// returning a non-empty uid.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthenticated",
				"message": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthenticated",
				"message": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := auth.ParseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthenticated",
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyName, claims.Name)
		c.Next()
	}
}

// GetUserID returns the verified caller uid, or "" when the request did not
// pass through AuthMiddleware.
func GetUserID(c *gin.Context) string {
	uid, _ := c.Get(ContextKeyUserID)
	s, _ := uid.(string)
	return s
}

// GetUserName returns the display name carried in the token, if any.
func GetUserName(c *gin.Context) string {
	name, _ := c.Get(ContextKeyName)
	s, _ := name.(string)
	return s
}
