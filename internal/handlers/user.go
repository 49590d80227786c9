package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mlm-platform/internal/auth"
	"mlm-platform/internal/models"
	"mlm-platform/internal/services"
)

// UserHandler serves the member's own profile and network views
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GetProfile returns the user with a shareable referral code
// GET /api/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"success": true,
		"user":    user,
	}
	// only active members can sponsor new registrations
	if user.MembershipStatus {
		resp["referral_code"] = strconv.FormatUint(uint64(user.ID), 10)
	}
	c.JSON(http.StatusOK, resp)
}

// GetReferrals returns the direct referrals of the user
// GET /api/user/referrals
func (h *UserHandler) GetReferrals(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	referrals, err := h.users.GetDirectReferrals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"referrals": referrals,
		"count":     len(referrals),
	})
}

// GetUpline returns the ancestors that earn commissions from the user
// GET /api/user/upline
func (h *UserHandler) GetUpline(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	upline, err := h.users.GetUpline(c.Request.Context(), userID, models.MaxRewardLevel)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"upline":  upline,
	})
}

// GetWalletHistory returns the user's ledger
// GET /api/user/wallet
func (h *UserHandler) GetWalletHistory(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	limit, offset := pagination(c)

	entries, total, err := h.users.GetWalletHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": entries,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}
