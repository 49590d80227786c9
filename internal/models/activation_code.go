package models

import (
	"time"
)

// ActivationCode is a single-use authorization to activate a membership.
// Codes may change owner until they are used.
type ActivationCode struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Code         string     `gorm:"uniqueIndex;not null;size:32" json:"code"`
	IsUsed       bool       `gorm:"default:false;index" json:"is_used"`
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	OwnerUserID  *uint      `gorm:"index" json:"owner_user_id,omitempty"`
	Owner        *User      `gorm:"foreignKey:OwnerUserID" json:"owner,omitempty"`
	UsedByUserID *uint      `json:"used_by_user_id,omitempty"`
	UsedByUser   *User      `gorm:"foreignKey:UsedByUserID" json:"used_by_user,omitempty"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName specifies the table name for ActivationCode model
func (ActivationCode) TableName() string {
	return "activation_codes"
}

// IsExpired reports whether the code can no longer be redeemed at t.
func (c *ActivationCode) IsExpired(t time.Time) bool {
	return !t.Before(c.ExpiresAt)
}
