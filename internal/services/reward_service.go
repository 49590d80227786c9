package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"mlm-platform/internal/metrics"
	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
)

// RewardService owns the reward catalog and the per-user reward states
type RewardService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewRewardService(repo *repository.Repository) *RewardService {
	return &RewardService{repo: repo, now: time.Now}
}

// ClaimResult is returned by a successful claim
type ClaimResult struct {
	RewardID  uint            `json:"reward_id"`
	Level     int             `json:"level"`
	Amount    decimal.Decimal `json:"amount"`
	ClaimDate time.Time       `json:"claim_date"`
}

// Unlock makes every unclaimable reward of userID at level claimable.
// It returns false when there was nothing left to unlock.
func (s *RewardService) Unlock(ctx context.Context, userID uint, level int) (bool, error) {
	if level < 1 || level > models.MaxRewardLevel {
		return false, fmt.Errorf("%w: level %d", ErrInvalidInput, level)
	}

	rows, err := s.repo.UnlockRewardLevel(ctx, userID, level)
	if err != nil {
		return false, fmt.Errorf("failed to unlock level %d for user %d: %w", level, userID, err)
	}
	if rows == 0 {
		return false, nil
	}

	metrics.RecordRewardUnlock(level)
	zap.L().Info("Reward level unlocked",
		zap.Uint("user_id", userID),
		zap.Int("level", level),
		zap.Int64("rewards", rows))
	return true, nil
}

// Claim pays out a claimable reward into the user's wallet, at most once
func (s *RewardService) Claim(ctx context.Context, userID, rewardID uint) (*ClaimResult, error) {
	row, err := s.repo.GetUserReward(ctx, userID, rewardID)
	if err != nil {
		metrics.RecordRewardClaim("not_found")
		return nil, notFound(err, "reward")
	}
	if row.IsClaimed {
		metrics.RecordRewardClaim("already_claimed")
		return nil, ErrAlreadyClaimed
	}
	if !row.IsClaimable {
		metrics.RecordRewardClaim("not_claimable")
		return nil, ErrNotClaimable
	}
	if row.Reward == nil {
		metrics.RecordRewardClaim("not_found")
		return nil, fmt.Errorf("reward definition %d: %w", rewardID, ErrNotFound)
	}

	at := s.now()
	claimed, err := s.repo.ClaimUserReward(ctx, row, row.Reward.Amount, at)
	if err != nil {
		metrics.RecordRewardClaim("error")
		return nil, fmt.Errorf("failed to claim reward: %w", err)
	}
	if !claimed {
		// lost the race against a concurrent claim
		metrics.RecordRewardClaim("already_claimed")
		return nil, ErrAlreadyClaimed
	}

	metrics.RecordRewardClaim("claimed")
	zap.L().Info("Reward claimed",
		zap.Uint("user_id", userID),
		zap.Uint("reward_id", rewardID),
		zap.Int("level", row.Level),
		zap.String("amount", row.Reward.Amount.String()))

	return &ClaimResult{
		RewardID:  rewardID,
		Level:     row.Level,
		Amount:    row.Reward.Amount,
		ClaimDate: at,
	}, nil
}

// GetUserRewardState returns the reward list, level tally and network size of userID
func (s *RewardService) GetUserRewardState(ctx context.Context, userID uint) (*models.UserRewardState, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	views, err := s.repo.ListUserRewardViews(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rewards: %w", err)
	}
	if views == nil {
		views = []models.UserRewardView{}
	}

	counts := (&models.LevelReward{}).Counts()
	tally, err := s.repo.GetLevelReward(ctx, userID)
	switch {
	case err == nil:
		counts = tally.Counts()
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load level tally: %w", err)
	}

	return &models.UserRewardState{
		Rewards:     views,
		LevelCounts: counts,
		NetworkSize: user.NetworkSize,
	}, nil
}

// RewardDefinitionInput is the admin payload for a catalog entry
type RewardDefinitionInput struct {
	Slug        string          `json:"slug"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Level       int             `json:"level" binding:"required"`
	ReqMembers  int64           `json:"req_members"`
	Amount      decimal.Decimal `json:"amount"`
}

func (in *RewardDefinitionInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Level < 1 || in.Level > models.MaxRewardLevel {
		return fmt.Errorf("%w: level must be between 1 and %d", ErrInvalidInput, models.MaxRewardLevel)
	}
	if in.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if in.ReqMembers < 0 {
		return fmt.Errorf("%w: req_members must not be negative", ErrInvalidInput)
	}
	return nil
}

func (in *RewardDefinitionInput) slug() string {
	if in.Slug != "" {
		return slug.Make(in.Slug)
	}
	return slug.Make(fmt.Sprintf("level %d %s", in.Level, in.Name))
}

// ListCatalog returns every reward definition
func (s *RewardService) ListCatalog(ctx context.Context) ([]models.RewardDefinition, error) {
	return s.repo.ListRewardDefinitions(ctx)
}

// CreateDefinition adds a catalog entry. Members who activated earlier do
// not receive it; only later activations snapshot it.
func (s *RewardService) CreateDefinition(ctx context.Context, in RewardDefinitionInput) (*models.RewardDefinition, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	def := &models.RewardDefinition{
		Slug:        in.slug(),
		Level:       in.Level,
		ReqMembers:  in.ReqMembers,
		Amount:      in.Amount,
		Name:        in.Name,
		Description: in.Description,
	}
	if err := s.repo.CreateRewardDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to create reward definition: %w", err)
	}

	zap.L().Info("Reward definition created",
		zap.Uint("reward_id", def.ID),
		zap.String("slug", def.Slug),
		zap.Int("level", def.Level))
	return def, nil
}

// UpdateDefinition edits a catalog entry. The level of existing snapshots
// is left alone; a changed amount applies to later claims.
func (s *RewardService) UpdateDefinition(ctx context.Context, id uint, in RewardDefinitionInput) (*models.RewardDefinition, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":        in.Name,
		"description": in.Description,
		"level":       in.Level,
		"req_members": in.ReqMembers,
		"amount":      in.Amount,
	}
	if in.Slug != "" {
		updates["slug"] = slug.Make(in.Slug)
	}

	if err := s.repo.UpdateRewardDefinition(ctx, id, updates); err != nil {
		return nil, notFound(err, "reward definition")
	}
	return s.repo.GetRewardDefinition(ctx, id)
}

// CatalogEntry is one item of the reward catalog seed file
type CatalogEntry struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Level       int    `yaml:"level"`
	ReqMembers  int64  `yaml:"req_members"`
	Amount      string `yaml:"amount"`
}

type catalogFile struct {
	Rewards []CatalogEntry `yaml:"rewards"`
}

// LoadCatalogFile parses a YAML reward catalog
func LoadCatalogFile(path string) ([]CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse reward catalog %s: %w", path, err)
	}
	return file.Rewards, nil
}

// SeedCatalog inserts entries whose slug is not yet in the catalog.
// Existing entries are never overwritten. Returns how many were created.
func (s *RewardService) SeedCatalog(ctx context.Context, entries []CatalogEntry) (int, error) {
	created := 0
	for _, entry := range entries {
		amount, err := decimal.NewFromString(entry.Amount)
		if err != nil {
			return created, fmt.Errorf("%w: amount %q of %q", ErrInvalidInput, entry.Amount, entry.Name)
		}

		in := RewardDefinitionInput{
			Slug:        entry.Slug,
			Name:        entry.Name,
			Description: entry.Description,
			Level:       entry.Level,
			ReqMembers:  entry.ReqMembers,
			Amount:      amount,
		}
		if err := in.validate(); err != nil {
			return created, err
		}

		_, err = s.repo.GetRewardDefinitionBySlug(ctx, in.slug())
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		if _, err := s.CreateDefinition(ctx, in); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
