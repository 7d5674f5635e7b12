package delivery

import (
	"net/http"
	"strings"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "userID"

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
		c.Abort()
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
		c.Abort()
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware requires a valid user access token
func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		principal, err := authUsecase.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, principal.UserID)
		c.Next()
	}
}

// ServiceKeyMiddleware requires the internal service key as bearer token
func ServiceKeyMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := bearerToken(c)
		if !ok {
			return
		}

		if _, err := authUsecase.ValidateServiceKey(key); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid service key"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
