package repository

import (
	"context"

	"mlm-platform/internal/models"
)

// GetAdminByUserID returns the admin record for userID
func (r *Repository) GetAdminByUserID(ctx context.Context, userID uint) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// CreateAdminUser inserts an admin record
func (r *Repository) CreateAdminUser(ctx context.Context, admin *models.AdminUser) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

// CreateAdminLog appends an audit log entry
func (r *Repository) CreateAdminLog(ctx context.Context, entry *models.AdminLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListAdminLogs returns the audit log, newest first
func (r *Repository) ListAdminLogs(ctx context.Context, limit, offset int) ([]models.AdminLog, error) {
	var logs []models.AdminLog
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
