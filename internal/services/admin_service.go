package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
)

type AdminService struct {
	repo *repository.Repository
	mu   sync.Mutex
}

func NewAdminService(repo *repository.Repository) *AdminService {
	return &AdminService{
		repo: repo,
	}
}

// IsAdmin checks if a user is an admin
func (s *AdminService) IsAdmin(ctx context.Context, userID uint) bool {
	_, err := s.repo.GetAdminByUserID(ctx, userID)
	return err == nil
}

// GetAdminByUserID gets admin by user ID
func (s *AdminService) GetAdminByUserID(ctx context.Context, userID uint) (*models.AdminUser, error) {
	admin, err := s.repo.GetAdminByUserID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "admin")
	}
	return admin, nil
}

// PromoteUserToAdmin promotes a user to admin. promotedBy is nil when
// bootstrapping the first admin from the command line.
func (s *AdminService) PromoteUserToAdmin(ctx context.Context, userID uint, role string, promotedBy *uint) (*models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role != models.AdminRoleSuper && role != models.AdminRoleOperator {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, notFound(err, "user")
	}

	if _, err := s.repo.GetAdminByUserID(ctx, userID); err == nil {
		return nil, fmt.Errorf("%w: user is already an admin", ErrInvalidInput)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	permissions := models.JSONB{
		"manage_users":    true,
		"manage_codes":    true,
		"manage_payouts":  true,
		"manage_catalog":  role == models.AdminRoleSuper,
		"manage_admins":   role == models.AdminRoleSuper,
		"direct_activate": role == models.AdminRoleSuper,
	}

	adminUser := models.AdminUser{
		UserID:      userID,
		Role:        role,
		Permissions: permissions,
	}
	if err := s.repo.CreateAdminUser(ctx, &adminUser); err != nil {
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}

	if promotedBy != nil {
		s.LogAdminAction(ctx, *promotedBy, "PROMOTE_USER", "USER", &userID, map[string]interface{}{
			"role": role,
		})
	}

	zap.L().Info("User promoted", zap.Uint("user_id", userID), zap.String("role", role))
	return &adminUser, nil
}

// HasPermission reports whether the admin holds a permission.
// Super admins hold every permission.
func (s *AdminService) HasPermission(admin *models.AdminUser, permission string) bool {
	if admin.Role == models.AdminRoleSuper {
		return true
	}
	granted, _ := admin.Permissions[permission].(bool)
	return granted
}

// LogAdminAction logs an admin action. Failures are logged, never returned.
func (s *AdminService) LogAdminAction(ctx context.Context, adminID uint, action string, resourceType string,
	resourceID *uint, details map[string]interface{}) {

	adminLog := models.AdminLog{
		AdminID:      adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.JSONB(details),
	}

	if err := s.repo.CreateAdminLog(ctx, &adminLog); err != nil {
		zap.L().Error("Failed to write admin log",
			zap.Uint("admin_id", adminID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// GetAdminLogs returns admin activity logs
func (s *AdminService) GetAdminLogs(ctx context.Context, limit int, offset int) ([]models.AdminLog, error) {
	return s.repo.ListAdminLogs(ctx, limit, offset)
}

// GetAllUsers returns all users with optional filtering
func (s *AdminService) GetAllUsers(ctx context.Context, limit int, offset int, search string) ([]models.User, int64, error) {
	return s.repo.ListUsers(ctx, limit, offset, search)
}
