package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus is the review state of a withdrawal request.
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "PENDING"
	PayoutStatusPaid     PayoutStatus = "PAID"
	PayoutStatusRejected PayoutStatus = "REJECTED"
)

// PayoutRequest is a withdrawal from a wallet balance to an external address.
// The balance is debited when the request is created.
type PayoutRequest struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Reference     string          `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	User          *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	WalletAddress string          `gorm:"size:64;not null" json:"wallet_address"`
	Status        PayoutStatus    `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	ReviewedBy    *uint           `json:"reviewed_by,omitempty"`
	Note          string          `gorm:"type:text" json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ReviewedAt    *time.Time      `json:"reviewed_at,omitempty"`
}

func (PayoutRequest) TableName() string {
	return "payout_requests"
}
