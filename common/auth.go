package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	adminKey  = "is_admin"
	userIDKey = "user_id"
)

// MarkAdmin records an authenticated admin on the request.
func MarkAdmin(c *gin.Context, userID uint) {
	c.Set(adminKey, true)
	c.Set(userIDKey, userID)
}

// IsAdmin reports whether the request carries admin credentials.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(adminKey)
}

func UserID(c *gin.Context) uint {
	return c.GetUint(userIDKey)
}

// RequireAdmin rejects requests that were not identified as admin.
func RequireAdmin(c *gin.Context) {
	if !IsAdmin(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.Next()
}
