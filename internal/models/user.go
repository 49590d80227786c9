package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a member of the referral network.
// ReferrerID is set once at registration and never changes, so the
// users table forms a rooted tree.
type User struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	WalletAddress    string          `gorm:"uniqueIndex;not null" json:"wallet_address"`
	Nickname         string          `gorm:"uniqueIndex;not null" json:"nickname"`
	MembershipStatus bool            `gorm:"default:false;index" json:"membership_status"`
	ReferrerID       *uint           `gorm:"index" json:"referrer_id,omitempty"`
	Referrer         *User           `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	WalletBalance    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"wallet_balance"`
	LevelIncome      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"level_income"`
	NetworkSize      int64           `gorm:"not null;default:0" json:"network_size"`
	ActiveReferrals  int64           `gorm:"not null;default:0" json:"active_referrals"`
	ActivatedAt      *time.Time      `json:"activated_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
