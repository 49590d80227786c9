package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mlm-platform/internal/auth"
	"mlm-platform/internal/services"
)

// LoginMessage is the text a wallet signs to log in
const LoginMessage = "Sign this message to authenticate with the referral network"

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	users       *services.UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, users *services.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
	}
}

// WalletLogin authenticates a user by wallet address and signature of
// LoginMessage, registering the wallet on first login.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		ReferralCode  string `json:"referral_code"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := services.VerifySignature(req.WalletAddress, LoginMessage, req.Signature); err != nil {
		if statusFor(err) == http.StatusForbidden {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid signature"})
			return
		}
		respondError(c, err)
		return
	}

	user, created, err := h.authService.ProcessWalletLogin(c.Request.Context(), req.WalletAddress, req.ReferralCode)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.WalletAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    user,
		"created": created,
	})
}

// GetMe returns the currently authenticated user's profile
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}
