package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sanapath/sanapath/internal/utils"
	"github.com/sanapath/sanapath/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextEmail    = "email"
	ContextProvider = "provider"
)

// AuthRequired rejects requests without a valid bearer access token.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Not authenticated")
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			response.Unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Could not validate credentials")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := utils.ParseToken(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextProvider, claims.Provider)
}

// GetUserID gets the current user ID from context, 0 when anonymous.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

func GetProvider(c *gin.Context) string {
	return c.GetString(ContextProvider)
}
