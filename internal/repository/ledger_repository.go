package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mlm-platform/internal/models"
)

// ListWalletTransactions returns the ledger of userID, newest first
func (r *Repository) ListWalletTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	var entries []models.WalletTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// CreatePayoutRequest debits the requested amount from the user's wallet and
// records the request with its ledger row. Returns false, without writing
// anything, when the balance does not cover the amount.
func (r *Repository) CreatePayoutRequest(ctx context.Context, req *models.PayoutRequest) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ? AND wallet_balance >= ?", req.UserID, req.Amount).
			Update("wallet_balance", gorm.Expr("wallet_balance - ?", req.Amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Create(req).Error; err != nil {
			return err
		}

		entry := models.WalletTransaction{
			UserID:      req.UserID,
			Type:        models.TxTypeWithdrawal,
			Amount:      req.Amount.Neg(),
			Reference:   req.Reference,
			Description: fmt.Sprintf("Withdrawal to %s", req.WalletAddress),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		created = true
		return nil
	})
	return created, err
}

// GetPayoutRequest retrieves a payout request by ID
func (r *Repository) GetPayoutRequest(ctx context.Context, id uint) (*models.PayoutRequest, error) {
	var req models.PayoutRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPayoutRequests returns payout requests filtered by user and status
func (r *Repository) ListPayoutRequests(ctx context.Context, userID *uint, status models.PayoutStatus, limit, offset int) ([]models.PayoutRequest, int64, error) {
	var reqs []models.PayoutRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PayoutRequest{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// MarkPayoutPaid moves a pending request to PAID. Returns false when it was not pending.
func (r *Repository) MarkPayoutPaid(ctx context.Context, id, reviewerID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PayoutRequest{}).
		Where("id = ? AND status = ?", id, models.PayoutStatusPending).
		Updates(map[string]interface{}{
			"status":      models.PayoutStatusPaid,
			"reviewed_by": reviewerID,
			"reviewed_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RejectPayout moves a pending request to REJECTED and refunds the amount.
// Returns false when it was not pending.
func (r *Repository) RejectPayout(ctx context.Context, id, reviewerID uint, note string, at time.Time) (bool, error) {
	rejected := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.PayoutRequest
		if err := tx.Where("id = ?", id).First(&req).Error; err != nil {
			return err
		}

		result := tx.Model(&models.PayoutRequest{}).
			Where("id = ? AND status = ?", id, models.PayoutStatusPending).
			Updates(map[string]interface{}{
				"status":      models.PayoutStatusRejected,
				"reviewed_by": reviewerID,
				"reviewed_at": at,
				"note":        note,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", req.UserID).
			Update("wallet_balance", gorm.Expr("wallet_balance + ?", req.Amount)).Error; err != nil {
			return err
		}

		entry := models.WalletTransaction{
			UserID:      req.UserID,
			Type:        models.TxTypeWithdrawalRefund,
			Amount:      req.Amount,
			Reference:   req.Reference,
			Description: "Withdrawal rejected, amount returned",
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		rejected = true
		return nil
	})
	return rejected, err
}
