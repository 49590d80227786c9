package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxRewardLevel is the highest reward tier and the depth of the level tally.
const MaxRewardLevel = 6

// RewardDefinition is an admin-managed catalog entry.
type RewardDefinition struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Slug        string          `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Level       int             `gorm:"not null;index" json:"level"`
	ReqMembers  int64           `gorm:"not null" json:"req_members"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (RewardDefinition) TableName() string {
	return "reward_definitions"
}

// UserReward is the entitlement snapshot taken when a user activates:
// one row per catalog entry that existed at that moment. Level is copied
// from the definition so unlocks never consult the live catalog.
type UserReward struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      uint              `gorm:"not null;uniqueIndex:idx_user_reward" json:"user_id"`
	RewardID    uint              `gorm:"not null;uniqueIndex:idx_user_reward" json:"reward_id"`
	Reward      *RewardDefinition `gorm:"foreignKey:RewardID" json:"reward,omitempty"`
	Level       int               `gorm:"not null;index" json:"level"`
	IsClaimable bool              `gorm:"default:false" json:"is_claimable"`
	IsClaimed   bool              `gorm:"default:false" json:"is_claimed"`
	ClaimDate   *time.Time        `json:"claim_date,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (UserReward) TableName() string {
	return "user_rewards"
}

// LevelReward holds how many network members sit exactly N hops below a user.
// These are team statistics, not financial figures.
type LevelReward struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Level1Count int64     `gorm:"column:level1_count;default:0" json:"level1_count"`
	Level2Count int64     `gorm:"column:level2_count;default:0" json:"level2_count"`
	Level3Count int64     `gorm:"column:level3_count;default:0" json:"level3_count"`
	Level4Count int64     `gorm:"column:level4_count;default:0" json:"level4_count"`
	Level5Count int64     `gorm:"column:level5_count;default:0" json:"level5_count"`
	Level6Count int64     `gorm:"column:level6_count;default:0" json:"level6_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (LevelReward) TableName() string {
	return "level_rewards"
}

// Counts returns the counters keyed by level.
func (l *LevelReward) Counts() map[int]int64 {
	return map[int]int64{
		1: l.Level1Count,
		2: l.Level2Count,
		3: l.Level3Count,
		4: l.Level4Count,
		5: l.Level5Count,
		6: l.Level6Count,
	}
}

// LevelCountColumn returns the level_rewards column for a level, or "" if out of range.
func LevelCountColumn(level int) string {
	switch level {
	case 1:
		return "level1_count"
	case 2:
		return "level2_count"
	case 3:
		return "level3_count"
	case 4:
		return "level4_count"
	case 5:
		return "level5_count"
	case 6:
		return "level6_count"
	}
	return ""
}

// UserRewardView is a reward row joined with its catalog entry.
type UserRewardView struct {
	UserRewardID uint            `json:"user_reward_id"`
	RewardID     uint            `json:"reward_id"`
	Level        int             `json:"level"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	ReqMembers   int64           `json:"req_members"`
	Amount       decimal.Decimal `json:"amount"`
	IsClaimable  bool            `json:"is_claimable"`
	IsClaimed    bool            `json:"is_claimed"`
	ClaimDate    *time.Time      `json:"claim_date,omitempty"`
}

// UserRewardState is what a member sees on the rewards page.
type UserRewardState struct {
	Rewards     []UserRewardView `json:"rewards"`
	LevelCounts map[int]int64    `json:"level_counts"`
	NetworkSize int64            `json:"network_size"`
}
