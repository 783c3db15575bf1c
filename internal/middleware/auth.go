package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/service"
	"github.com/pagecraft/pagecraft-backend/pkg/jwt"
)

// JWTAuth JWT authentication middleware
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.Error(c, http.StatusUnauthorized, "Missing authorization header", nil)
			c.Abort()
			return
		}

		// 2. Parse Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.Error(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			c.Abort()
			return
		}

		tokenString := parts[1]

		// 3. Verify token
		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.Error(c, http.StatusUnauthorized, "Token expired", err)
			} else {
				common.Error(c, http.StatusUnauthorized, "Invalid token", err)
			}
			c.Abort()
			return
		}

		// 4. Store user info in context
		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("level", claims.Level)

		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) uint64 {
	userID, exists := c.Get("userID")
	if !exists {
		return 0
	}
	if id, ok := userID.(uint64); ok {
		return id
	}
	return 0
}

// GetUserRole extracts the role from context
func GetUserRole(c *gin.Context) string {
	role, exists := c.Get("role")
	if !exists {
		return ""
	}
	if str, ok := role.(string); ok {
		return str
	}
	return ""
}

// GetActor builds the service-layer actor from the request context
func GetActor(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: GetUserID(c),
		Role:   GetUserRole(c),
	}
}
