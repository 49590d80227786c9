package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mlm-platform/internal/config"
	"mlm-platform/internal/metrics"
	"mlm-platform/internal/models"
)

// Milestone maps an exact network size to the reward level it unlocks
type Milestone struct {
	NetworkSize int64
	Level       int
}

// NetworkMilestones are checked after every network_size increment.
// Only an exact match unlocks, so each level fires at most once per user.
var NetworkMilestones = []Milestone{
	{100, 2},
	{1000, 3},
	{10000, 4},
	{100000, 5},
}

// MilestoneLevel returns the level unlocked at exactly size, or 0
func MilestoneLevel(size int64) int {
	for _, m := range NetworkMilestones {
		if m.NetworkSize == size {
			return m.Level
		}
	}
	return 0
}

// RewardUnlocker flips a user's reward level to claimable
type RewardUnlocker interface {
	Unlock(ctx context.Context, userID uint, level int) (bool, error)
}

// MilestoneHit records a milestone reached during propagation
type MilestoneHit struct {
	UserID   uint `json:"user_id"`
	Level    int  `json:"level"`
	Unlocked bool `json:"unlocked"`
}

// PropagationReport describes what a network-size walk did
type PropagationReport struct {
	Visited    int            `json:"visited"`
	Milestones []MilestoneHit `json:"milestones,omitempty"`
	Err        error          `json:"-"`
}

// Truncated reports whether the walk stopped before the root
func (r *PropagationReport) Truncated() bool {
	return r.Err != nil
}

// NetworkService maintains network_size and the level tally for every
// ancestor of a newly activated member.
type NetworkService struct {
	store     UplineStore
	rewards   RewardUnlocker
	tallyMode string
}

func NewNetworkService(store UplineStore, rewards RewardUnlocker, cfg config.NetworkConfig) *NetworkService {
	mode := cfg.TallyMode
	if mode == "" {
		mode = config.TallyModeFull
	}
	return &NetworkService{store: store, rewards: rewards, tallyMode: mode}
}

// Propagate walks from startID (the new member's referrer) to the root.
// Each ancestor's network_size is bumped in its own atomic step; a lookup
// or increment failure stops the walk and leaves earlier increments applied.
func (s *NetworkService) Propagate(ctx context.Context, startID uint) *PropagationReport {
	report := &PropagationReport{}

	visited, err := IterateAncestors(ctx, s.store, startID, 0, func(hop int, userID uint) error {
		size, err := s.store.IncrementNetworkSize(ctx, userID)
		if err != nil {
			return err
		}

		if s.tallyMode == config.TallyModeFull && hop <= models.MaxRewardLevel {
			s.bumpTally(ctx, userID, hop)
		}

		if level := MilestoneLevel(size); level > 0 {
			unlocked := s.unlock(ctx, userID, level)
			report.Milestones = append(report.Milestones, MilestoneHit{UserID: userID, Level: level, Unlocked: unlocked})
			if unlocked && s.tallyMode == config.TallyModePartial {
				s.bumpTally(ctx, userID, level)
			}
		}
		return nil
	})
	report.Visited = visited

	if err != nil {
		if !errors.Is(err, ErrTransientLookup) {
			err = errors.Join(ErrTransientLookup, err)
		}
		report.Err = err
		zap.L().Warn("Network propagation truncated",
			zap.Uint("start_user_id", startID),
			zap.Int("visited", visited),
			zap.Error(err))
	}

	metrics.RecordUplineWalk("network", report.Visited, report.Truncated())
	return report
}

func (s *NetworkService) unlock(ctx context.Context, userID uint, level int) bool {
	unlocked, err := s.rewards.Unlock(ctx, userID, level)
	if err != nil {
		zap.L().Error("Failed to unlock milestone reward",
			zap.Uint("user_id", userID),
			zap.Int("level", level),
			zap.Error(err))
		return false
	}
	return unlocked
}

// bumpTally is best effort: the reconciler job rebuilds counters from the tree
func (s *NetworkService) bumpTally(ctx context.Context, userID uint, level int) {
	if err := s.store.IncrementLevelCount(ctx, userID, level); err != nil {
		zap.L().Warn("Failed to increment level tally",
			zap.Uint("user_id", userID),
			zap.Int("level", level),
			zap.Error(err))
	}
}
