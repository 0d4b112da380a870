package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-match/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userIDHeader = "X-User-Id"
)

// Identity stores the caller identity forwarded by the upstream authenticator.
// Requests without the header continue anonymously.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := strings.TrimSpace(c.GetHeader(userIDHeader)); userID != "" {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

// RequireUser rejects requests that carry no caller identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if UserIDFromContext(c) == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
