package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"mlm-platform/internal/models"
	"mlm-platform/internal/services"
)

type AdminHandler struct {
	db           *gorm.DB
	adminService *services.AdminService
	activation   *services.ActivationService
	codes        *services.ActivationCodeService
	rewards      *services.RewardService
	payouts      *services.PayoutService
	tally        *services.TallyService
}

func NewAdminHandler(
	db *gorm.DB,
	adminService *services.AdminService,
	activation *services.ActivationService,
	codes *services.ActivationCodeService,
	rewards *services.RewardService,
	payouts *services.PayoutService,
	tally *services.TallyService,
) *AdminHandler {
	return &AdminHandler{
		db:           db,
		adminService: adminService,
		activation:   activation,
		codes:        codes,
		rewards:      rewards,
		payouts:      payouts,
		tally:        tally,
	}
}

// AdminMiddleware checks if user is admin
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			c.Abort()
			return
		}

		admin, err := h.adminService.GetAdminByUserID(c.Request.Context(), userID.(uint))
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not an admin"})
			c.Abort()
			return
		}

		c.Set("admin_id", admin.ID)
		c.Set("admin_role", admin.Role)
		c.Set("admin", admin)
		c.Next()
	}
}

// RequirePermission lets through admins holding permission
func (h *AdminHandler) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, _ := c.Get("admin")
		admin, ok := value.(*models.AdminUser)
		if !ok || !h.adminService.HasPermission(admin, permission) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Missing permission: " + permission})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetDashboard returns headline network figures
// GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())

	var totalUsers, activeMembers, pendingPayouts int64
	db.Model(&models.User{}).Count(&totalUsers)
	db.Model(&models.User{}).Where("membership_status = ?", true).Count(&activeMembers)
	db.Model(&models.PayoutRequest{}).Where("status = ?", models.PayoutStatusPending).Count(&pendingPayouts)

	var commissions decimal.NullDecimal
	db.Model(&models.WalletTransaction{}).
		Where("type = ?", models.TxTypeLevelCommission).
		Select("SUM(amount)").
		Scan(&commissions)

	var recentLogs []models.AdminLog
	db.Order("created_at DESC").Limit(10).Find(&recentLogs)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_users":       totalUsers,
			"active_members":    activeMembers,
			"pending_payouts":   pendingPayouts,
			"commissions_total": commissions.Decimal,
			"recent_activity":   recentLogs,
		},
	})
}

// GetUsers returns users with optional search
// GET /api/admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	limit, offset := pagination(c)
	search := c.Query("search")

	users, total, err := h.adminService.GetAllUsers(c.Request.Context(), limit, offset, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// ActivateUser activates a membership without a code
// POST /api/admin/users/:id/activate
func (h *AdminHandler) ActivateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	outcome, err := h.activation.ActivateDirect(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	details := map[string]interface{}{"rewards_created": outcome.RewardsCreated}
	if uplineErr := outcome.UplineErr(); uplineErr != nil {
		details["upline_error"] = uplineErr.Error()
	}
	h.adminService.LogAdminAction(c.Request.Context(), c.GetUint("admin_id"), "ACTIVATE_USER", "USER", &userID, details)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Membership activated",
		"data":    outcome,
	})
}

// GenerateCodes issues a batch of activation codes
// POST /api/admin/codes
func (h *AdminHandler) GenerateCodes(c *gin.Context) {
	var req struct {
		Count    int    `json:"count" binding:"required"`
		OwnerID  *uint  `json:"owner_user_id"`
		TTLHours *int64 `json:"ttl_hours"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	var ttl time.Duration
	if req.TTLHours != nil {
		ttl = time.Duration(*req.TTLHours) * time.Hour
	}

	codes, err := h.codes.Generate(c.Request.Context(), req.Count, req.OwnerID, ttl)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAdminAction(c.Request.Context(), c.GetUint("admin_id"), "GENERATE_CODES", "ACTIVATION_CODE", nil, map[string]interface{}{
		"count":         req.Count,
		"owner_user_id": req.OwnerID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    codes,
	})
}

// ListRewards returns the reward catalog
// GET /api/admin/rewards
func (h *AdminHandler) ListRewards(c *gin.Context) {
	catalog, err := h.rewards.ListCatalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": catalog})
}

// CreateReward adds a catalog entry
// POST /api/admin/rewards
func (h *AdminHandler) CreateReward(c *gin.Context) {
	var req services.RewardDefinitionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	def, err := h.rewards.CreateDefinition(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAdminAction(c.Request.Context(), c.GetUint("admin_id"), "CREATE_REWARD", "REWARD", &def.ID, map[string]interface{}{
		"slug":   def.Slug,
		"level":  def.Level,
		"amount": def.Amount.String(),
	})

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": def})
}

// UpdateReward edits a catalog entry
// PUT /api/admin/rewards/:id
func (h *AdminHandler) UpdateReward(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.RewardDefinitionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	def, err := h.rewards.UpdateDefinition(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAdminAction(c.Request.Context(), c.GetUint("admin_id"), "UPDATE_REWARD", "REWARD", &id, map[string]interface{}{
		"amount": def.Amount.String(),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "data": def})
}

// ListPayouts returns payout requests, optionally filtered by status
// GET /api/admin/payouts
func (h *AdminHandler) ListPayouts(c *gin.Context) {
	limit, offset := pagination(c)
	status := models.PayoutStatus(c.Query("status"))

	payouts, total, err := h.payouts.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payouts,
		"total":   total,
	})
}

// ApprovePayout marks a payout as paid
// POST /api/admin/payouts/:id/approve
func (h *AdminHandler) ApprovePayout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payout, err := h.payouts.Approve(c.Request.Context(), id, c.GetUint("admin_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAdminAction(c.Request.Context(), c.GetUint("admin_id"), "APPROVE_PAYOUT", "PAYOUT", &id, map[string]interface{}{
		"reference": payout.Reference,
		"amount":    payout.Amount.String(),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "data": payout})
}

// RejectPayout refunds a payout to the member's wallet
// POST /api/admin/payouts/:id/reject
func (h *AdminHandler) RejectPayout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	payout, err := h.payouts.Reject(c.Request.Context(), id, c.GetUint("admin_id"), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAdminAction(c.Request.Context(), c.GetUint("admin_id"), "REJECT_PAYOUT", "PAYOUT", &id, map[string]interface{}{
		"reference": payout.Reference,
		"note":      req.Note,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "data": payout})
}

// PromoteToAdmin promotes a user to admin
// POST /api/admin/admins
func (h *AdminHandler) PromoteToAdmin(c *gin.Context) {
	adminID := c.GetUint("admin_id")

	var req struct {
		UserID uint   `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	admin, err := h.adminService.PromoteUserToAdmin(c.Request.Context(), req.UserID, req.Role, &adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    admin,
	})
}

// ReconcileTally rebuilds the level counters now
// POST /api/admin/tally/reconcile
func (h *AdminHandler) ReconcileTally(c *gin.Context) {
	updated, err := h.tally.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAdminAction(c.Request.Context(), c.GetUint("admin_id"), "RECONCILE_TALLY", "LEVEL_REWARD", nil, map[string]interface{}{
		"members": updated,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "members": updated})
}

// GetAdminLogs returns admin activity logs
// GET /api/admin/logs
func (h *AdminHandler) GetAdminLogs(c *gin.Context) {
	limit, offset := pagination(c)

	logs, err := h.adminService.GetAdminLogs(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
		"count":   len(logs),
	})
}
