package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mlm-platform/internal/auth"
	"mlm-platform/internal/services"
)

// RewardHandler serves the member rewards page
type RewardHandler struct {
	rewards *services.RewardService
}

func NewRewardHandler(rewards *services.RewardService) *RewardHandler {
	return &RewardHandler{rewards: rewards}
}

// GetRewards returns rewards, level counts and network size of the caller
// GET /api/rewards
func (h *RewardHandler) GetRewards(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	state, err := h.rewards.GetUserRewardState(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"rewards":      state.Rewards,
		"level_counts": state.LevelCounts,
		"network_size": state.NetworkSize,
	})
}

// ClaimReward credits an unlocked reward to the caller's wallet
// POST /api/rewards/:id/claim
func (h *RewardHandler) ClaimReward(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	rewardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.rewards.Claim(c.Request.Context(), userID, rewardID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Reward claimed",
		"claim":   result,
	})
}
