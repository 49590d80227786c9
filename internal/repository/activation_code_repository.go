package repository

import (
	"context"
	"time"

	"mlm-platform/internal/models"
)

const codeBatchSize = 100

// CreateActivationCodes inserts a batch of codes
func (r *Repository) CreateActivationCodes(ctx context.Context, codes []models.ActivationCode) error {
	if len(codes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&codes, codeBatchSize).Error
}

// GetActivationCode retrieves a code by its value
func (r *Repository) GetActivationCode(ctx context.Context, code string) (*models.ActivationCode, error) {
	var ac models.ActivationCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&ac).Error; err != nil {
		return nil, err
	}
	return &ac, nil
}

// ConsumeActivationCode marks an unused, unexpired code as used by userID.
// Returns false when another caller consumed it first or it has expired.
func (r *Repository) ConsumeActivationCode(ctx context.Context, codeID, userID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ActivationCode{}).
		Where("id = ? AND is_used = ? AND expires_at > ?", codeID, false, at).
		Updates(map[string]interface{}{
			"is_used":         true,
			"used_by_user_id": userID,
			"used_at":         at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// TransferActivationCode moves an unused code from one owner to another.
// Returns false when the code is not unused and owned by fromUserID.
func (r *Repository) TransferActivationCode(ctx context.Context, code string, fromUserID, toUserID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ActivationCode{}).
		Where("code = ? AND owner_user_id = ? AND is_used = ?", code, fromUserID, false).
		Update("owner_user_id", toUserID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListActivationCodesByOwner returns the codes owned by userID, newest first
func (r *Repository) ListActivationCodesByOwner(ctx context.Context, userID uint) ([]models.ActivationCode, error) {
	var codes []models.ActivationCode
	if err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
