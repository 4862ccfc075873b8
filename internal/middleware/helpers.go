// internal/middleware/helpers.go
package middleware

import (
	"studylink-service/internal/domain/user"

	"github.com/gin-gonic/gin"
)

// MustGetUserID gets the user ID from context or panics
func MustGetUserID(c *gin.Context) int64 {
	userID, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return userID
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("user_id")
	return exists
}

// IsAdmin checks if the caller is an administrator
func IsAdmin(c *gin.Context) bool {
	role, ok := GetRole(c)
	return ok && role == string(user.RoleAdmin)
}
