package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mlm-platform/internal/auth"
	"mlm-platform/internal/services"
)

// ActivationHandler serves membership activation and code management
type ActivationHandler struct {
	activation *services.ActivationService
	codes      *services.ActivationCodeService
}

func NewActivationHandler(activation *services.ActivationService, codes *services.ActivationCodeService) *ActivationHandler {
	return &ActivationHandler{activation: activation, codes: codes}
}

// ActivateWithCode redeems an activation code for the caller
// POST /api/activation/code
func (h *ActivationHandler) ActivateWithCode(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	outcome, err := h.activation.ActivateWithCode(c.Request.Context(), userID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Membership activated",
		"rewards_created": outcome.RewardsCreated,
	})
}

// ListCodes returns the activation codes the caller owns
// GET /api/codes
func (h *ActivationHandler) ListCodes(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	codes, err := h.codes.ListOwned(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"codes":   codes,
	})
}

// TransferCode hands one of the caller's unused codes to another user
// POST /api/codes/transfer
func (h *ActivationHandler) TransferCode(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req struct {
		Code     string `json:"code" binding:"required"`
		ToUserID uint   `json:"to_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.codes.Transfer(c.Request.Context(), req.Code, userID, req.ToUserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Activation code transferred",
	})
}
