package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet transaction types
const (
	TxTypeLevelCommission  = "level_commission"
	TxTypeRewardClaim      = "reward_claim"
	TxTypeWithdrawal       = "withdrawal"
	TxTypeWithdrawalRefund = "withdrawal_refund"
)

// WalletTransaction records every credit or debit applied to a wallet balance.
type WalletTransaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	Type         string          `gorm:"size:50;not null;index" json:"type"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"` // positive = credit, negative = debit
	Level        *int            `json:"level,omitempty"`
	SourceUserID *uint           `gorm:"index" json:"source_user_id,omitempty"`
	Reference    string          `gorm:"size:128" json:"reference,omitempty"`
	Description  string          `gorm:"type:text" json:"description"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for WalletTransaction model
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
