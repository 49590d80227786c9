package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"mlm-platform/internal/auth"
	"mlm-platform/internal/services"
)

// PayoutHandler serves member withdrawals
type PayoutHandler struct {
	payouts *services.PayoutService
}

func NewPayoutHandler(payouts *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// RequestWithdrawal debits the wallet and queues a payout for review
// POST /api/payouts
func (h *PayoutHandler) RequestWithdrawal(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req struct {
		Amount        decimal.Decimal `json:"amount"`
		WalletAddress string          `json:"wallet_address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	payout, err := h.payouts.RequestWithdrawal(c.Request.Context(), userID, req.Amount, req.WalletAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Withdrawal requested",
		"payout":  payout,
	})
}

// ListPayouts returns the caller's payout requests
// GET /api/payouts
func (h *PayoutHandler) ListPayouts(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	limit, offset := pagination(c)

	payouts, total, err := h.payouts.ListForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payouts": payouts,
		"total":   total,
	})
}
