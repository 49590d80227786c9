package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mlm-platform/internal/models"
)

const snapshotBatchSize = 100

// ListRewardDefinitions returns the catalog ordered by level
func (r *Repository) ListRewardDefinitions(ctx context.Context) ([]models.RewardDefinition, error) {
	var defs []models.RewardDefinition
	if err := r.db.WithContext(ctx).Order("level ASC, id ASC").Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// GetRewardDefinition retrieves a catalog entry by ID
func (r *Repository) GetRewardDefinition(ctx context.Context, id uint) (*models.RewardDefinition, error) {
	var def models.RewardDefinition
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

// GetRewardDefinitionBySlug retrieves a catalog entry by slug
func (r *Repository) GetRewardDefinitionBySlug(ctx context.Context, slug string) (*models.RewardDefinition, error) {
	var def models.RewardDefinition
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

// CreateRewardDefinition inserts a catalog entry
func (r *Repository) CreateRewardDefinition(ctx context.Context, def *models.RewardDefinition) error {
	return r.db.WithContext(ctx).Create(def).Error
}

// UpdateRewardDefinition applies the given column updates to a catalog entry
func (r *Repository) UpdateRewardDefinition(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.RewardDefinition{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SnapshotUserRewards copies every current catalog entry into user_rewards
// for userID. Returns the number of rows written.
func (r *Repository) SnapshotUserRewards(ctx context.Context, userID uint) (int, error) {
	defs, err := r.ListRewardDefinitions(ctx)
	if err != nil {
		return 0, err
	}
	if len(defs) == 0 {
		return 0, nil
	}

	rows := make([]models.UserReward, 0, len(defs))
	for _, def := range defs {
		rows = append(rows, models.UserReward{
			UserID:   userID,
			RewardID: def.ID,
			Level:    def.Level,
		})
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&rows, snapshotBatchSize).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

// CreateLevelReward creates the zeroed level tally row for userID if missing
func (r *Repository) CreateLevelReward(ctx context.Context, userID uint) error {
	row := models.LevelReward{UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&row).Error
}

// GetLevelReward returns the level tally row for userID
func (r *Repository) GetLevelReward(ctx context.Context, userID uint) (*models.LevelReward, error) {
	var row models.LevelReward
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// IncrementLevelCount atomically adds one to the level counter of userID,
// creating the tally row on first use.
func (r *Repository) IncrementLevelCount(ctx context.Context, userID uint, level int) error {
	column := models.LevelCountColumn(level)
	if column == "" {
		return fmt.Errorf("level %d out of range", level)
	}

	var counts [models.MaxRewardLevel]int64
	counts[level-1] = 1
	row := levelRewardRow(userID, counts)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column:       gorm.Expr("level_rewards." + column + " + 1"),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&row).Error
}

// ListLevelCounts returns the current counters of every tally row, keyed by user id
func (r *Repository) ListLevelCounts(ctx context.Context) (map[uint][models.MaxRewardLevel]int64, error) {
	var rows []models.LevelReward
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint][models.MaxRewardLevel]int64, len(rows))
	for _, row := range rows {
		counts[row.UserID] = [models.MaxRewardLevel]int64{
			row.Level1Count, row.Level2Count, row.Level3Count,
			row.Level4Count, row.Level5Count, row.Level6Count,
		}
	}
	return counts, nil
}

// SwapLevelCounts overwrites the six counters of userID only if they still
// hold expected. A nil expected means no tally row existed; the row is then
// inserted unless one appeared in the meantime. Returns false when the row
// moved on since it was read.
func (r *Repository) SwapLevelCounts(ctx context.Context, userID uint, expected *[models.MaxRewardLevel]int64, counts [models.MaxRewardLevel]int64) (bool, error) {
	if expected == nil {
		row := levelRewardRow(userID, counts)
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&row)
		if result.Error != nil {
			return false, result.Error
		}
		return result.RowsAffected == 1, nil
	}

	updates := map[string]interface{}{"updated_at": gorm.Expr("CURRENT_TIMESTAMP")}
	query := r.db.WithContext(ctx).Model(&models.LevelReward{}).Where("user_id = ?", userID)
	for level := 1; level <= models.MaxRewardLevel; level++ {
		column := models.LevelCountColumn(level)
		updates[column] = counts[level-1]
		query = query.Where(column+" = ?", expected[level-1])
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func levelRewardRow(userID uint, counts [models.MaxRewardLevel]int64) models.LevelReward {
	return models.LevelReward{
		UserID:      userID,
		Level1Count: counts[0],
		Level2Count: counts[1],
		Level3Count: counts[2],
		Level4Count: counts[3],
		Level5Count: counts[4],
		Level6Count: counts[5],
	}
}

// UnlockRewardLevel marks every unclaimable snapshot row of userID at level
// as claimable. Returns the number of rows that changed.
func (r *Repository) UnlockRewardLevel(ctx context.Context, userID uint, level int) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.UserReward{}).
		Where("user_id = ? AND level = ? AND is_claimable = ?", userID, level, false).
		Update("is_claimable", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GetUserReward returns the snapshot row of userID for a catalog entry
func (r *Repository) GetUserReward(ctx context.Context, userID, rewardID uint) (*models.UserReward, error) {
	var row models.UserReward
	err := r.db.WithContext(ctx).
		Preload("Reward").
		Where("user_id = ? AND reward_id = ?", userID, rewardID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ClaimUserReward flips a claimable, unclaimed row to claimed and credits
// amount to the owner's wallet in the same transaction. Returns false when
// the row was not in a claimable state.
func (r *Repository) ClaimUserReward(ctx context.Context, row *models.UserReward, amount decimal.Decimal, at time.Time) (bool, error) {
	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.UserReward{}).
			Where("id = ? AND is_claimable = ? AND is_claimed = ?", row.ID, true, false).
			Updates(map[string]interface{}{
				"is_claimed": true,
				"claim_date": at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", row.UserID).
			Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount)).Error; err != nil {
			return err
		}

		level := row.Level
		entry := models.WalletTransaction{
			UserID:      row.UserID,
			Type:        models.TxTypeRewardClaim,
			Amount:      amount,
			Level:       &level,
			Reference:   fmt.Sprintf("user_reward:%d", row.ID),
			Description: fmt.Sprintf("Level %d reward claimed", level),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		claimed = true
		return nil
	})
	return claimed, err
}

// ListUserRewardViews returns the snapshot rows of userID joined with the catalog
func (r *Repository) ListUserRewardViews(ctx context.Context, userID uint) ([]models.UserRewardView, error) {
	var views []models.UserRewardView
	err := r.db.WithContext(ctx).
		Table("user_rewards").
		Select(`user_rewards.id AS user_reward_id,
			user_rewards.reward_id,
			user_rewards.level,
			reward_definitions.name,
			reward_definitions.description,
			reward_definitions.req_members,
			reward_definitions.amount,
			user_rewards.is_claimable,
			user_rewards.is_claimed,
			user_rewards.claim_date`).
		Joins("JOIN reward_definitions ON reward_definitions.id = user_rewards.reward_id").
		Where("user_rewards.user_id = ?", userID).
		Order("user_rewards.level ASC, user_rewards.reward_id ASC").
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}
