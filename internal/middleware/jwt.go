package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"ppob_wallet/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "userID"

const invalidTokenMessage = "Token tidak valid atau kadaluwarsa"

// JWTAuthMiddleware validates JWT tokens and extracts user information
func JWTAuthMiddleware(secret string, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c) // Abort with the 108 envelope
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			log.WithFields(logrus.Fields{
				"path":  c.FullPath(),
				"error": err.Error(),
			}).Debug("Rejected bearer token")
			unauthorized(c) // Same envelope for expired and forged tokens
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Next()                        // Proceed to the next handler
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  108,
		"message": invalidTokenMessage,
		"data":    nil,
	})
}
