package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MemberDirectory resolves the wallet currently registered to a user id
type MemberDirectory interface {
	WalletOf(ctx context.Context, userID uint) (wallet string, found bool, err error)
}

// AuthMiddleware validates JWT tokens and protects routes. A token is only
// honoured while its wallet_address claim still belongs to its user_id.
func AuthMiddleware(members MemberDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authorization header required",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			zap.L().Debug("Token validation failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		wallet, found, err := members.WalletOf(c.Request.Context(), claims.UserID)
		if err != nil {
			zap.L().Error("Member lookup failed",
				zap.Uint("user_id", claims.UserID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Internal server error",
			})
			c.Abort()
			return
		}
		if !found || wallet != claims.WalletAddress {
			zap.L().Warn("Token does not match a registered member",
				zap.Uint("user_id", claims.UserID),
				zap.String("wallet_address", claims.WalletAddress))
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Token no longer matches a registered member",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("wallet_address", claims.WalletAddress)

		c.Next()
	}
}

// GetUserID retrieves the user ID from the context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := userID.(uint)
	return id, ok
}

// GetWalletAddress retrieves the wallet address from the context
func GetWalletAddress(c *gin.Context) (string, bool) {
	addr, exists := c.Get("wallet_address")
	if !exists {
		return "", false
	}

	address, ok := addr.(string)
	return address, ok
}
