package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"mlm-platform/internal/models"
)

// CommissionCredit is one level-commission payment to an ancestor
type CommissionCredit struct {
	UserID       uint
	Hop          int
	Amount       decimal.Decimal
	SourceUserID uint
}

// TreeEdge is an active user and its referrer
type TreeEdge struct {
	ID         uint
	ReferrerID *uint
}

// CreateUser inserts a new user
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByWallet retrieves a user by wallet address
func (r *Repository) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ReferrerOf returns the referrer id of a user, nil for a tree root
func (r *Repository) ReferrerOf(ctx context.Context, userID uint) (*uint, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("id", "referrer_id").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return user.ReferrerID, nil
}

// ActivateUser flips membership_status from false to true.
// Returns false when the user was already active.
func (r *Repository) ActivateUser(ctx context.Context, userID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND membership_status = ?", userID, false).
		Updates(map[string]interface{}{
			"membership_status": true,
			"activated_at":      at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreditCommission adds a level commission to wallet_balance and
// level_income and writes the ledger row, as one committed step.
func (r *Repository) CreditCommission(ctx context.Context, credit CommissionCredit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ?", credit.UserID).
			Updates(map[string]interface{}{
				"wallet_balance": gorm.Expr("wallet_balance + ?", credit.Amount),
				"level_income":   gorm.Expr("level_income + ?", credit.Amount),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		hop := credit.Hop
		source := credit.SourceUserID
		entry := models.WalletTransaction{
			UserID:       credit.UserID,
			Type:         models.TxTypeLevelCommission,
			Amount:       credit.Amount,
			Level:        &hop,
			SourceUserID: &source,
			Description:  fmt.Sprintf("Level %d commission from user %d", hop, source),
		}
		return tx.Create(&entry).Error
	})
}

// IncrementNetworkSize atomically adds one to network_size and returns the new value.
// The row stays locked until commit, so the returned value is exactly this caller's.
func (r *Repository) IncrementNetworkSize(ctx context.Context, userID uint) (int64, error) {
	return r.incrementCounter(ctx, userID, "network_size")
}

// IncrementActiveReferrals atomically adds one to active_referrals and returns the new value
func (r *Repository) IncrementActiveReferrals(ctx context.Context, userID uint) (int64, error) {
	return r.incrementCounter(ctx, userID, "active_referrals")
}

func (r *Repository) incrementCounter(ctx context.Context, userID uint, column string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update(column, gorm.Expr(column+" + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Select(column).
			Scan(&value).Error
	})
	return value, err
}

// GetDirectReferrals returns the users directly referred by userID
func (r *Repository) GetDirectReferrals(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("referrer_id = ?", userID).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListUsers returns users with optional nickname/wallet search
func (r *Repository) ListUsers(ctx context.Context, limit, offset int, search string) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("nickname LIKE ? OR wallet_address LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// ListActiveTreeEdges returns every active user with its referrer
func (r *Repository) ListActiveTreeEdges(ctx context.Context) ([]TreeEdge, error) {
	var edges []TreeEdge
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("id", "referrer_id").
		Where("membership_status = ?", true).
		Scan(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// ListReferrerIDs maps every user id to its referrer id
func (r *Repository) ListReferrerIDs(ctx context.Context) (map[uint]*uint, error) {
	var edges []TreeEdge
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("id", "referrer_id").
		Scan(&edges).Error; err != nil {
		return nil, err
	}
	parents := make(map[uint]*uint, len(edges))
	for _, e := range edges {
		parents[e.ID] = e.ReferrerID
	}
	return parents, nil
}
