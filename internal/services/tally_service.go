package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mlm-platform/internal/config"
	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
)

// TallyService rebuilds the level_rewards counters from the referral tree
type TallyService struct {
	repo *repository.Repository
	mode string
}

func NewTallyService(repo *repository.Repository, cfg config.NetworkConfig) *TallyService {
	mode := cfg.TallyMode
	if mode == "" {
		mode = config.TallyModeFull
	}
	return &TallyService{repo: repo, mode: mode}
}

// ComputeLevelCounts counts, for every active member, the active members
// exactly 1..6 hops below it.
func ComputeLevelCounts(edges []repository.TreeEdge, parents map[uint]*uint) map[uint][models.MaxRewardLevel]int64 {
	counts := make(map[uint][models.MaxRewardLevel]int64, len(edges))
	for _, e := range edges {
		if _, ok := counts[e.ID]; !ok {
			counts[e.ID] = [models.MaxRewardLevel]int64{}
		}
	}

	for _, e := range edges {
		ancestor := e.ReferrerID
		for hop := 1; hop <= models.MaxRewardLevel && ancestor != nil; hop++ {
			row := counts[*ancestor]
			row[hop-1]++
			counts[*ancestor] = row
			ancestor = parents[*ancestor]
		}
	}
	return counts
}

// Reconcile overwrites every active member's level counters with values
// computed from the tree and returns how many rows it rewrote. It refuses to
// run in partial tally mode, where the counters are not per-hop totals.
// A row bumped by an activation after it was read is left alone until the
// next run.
func (s *TallyService) Reconcile(ctx context.Context) (int, error) {
	if s.mode != config.TallyModeFull {
		return 0, fmt.Errorf("%w: tally reconcile needs %s tally mode, running in %s",
			ErrInvalidInput, config.TallyModeFull, s.mode)
	}

	current, err := s.repo.ListLevelCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load level counts: %w", err)
	}
	edges, err := s.repo.ListActiveTreeEdges(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load tree: %w", err)
	}
	parents, err := s.repo.ListReferrerIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load referrers: %w", err)
	}

	active := make(map[uint]bool, len(edges))
	for _, e := range edges {
		active[e.ID] = true
	}

	updated, skipped := 0, 0
	for userID, row := range ComputeLevelCounts(edges, parents) {
		if !active[userID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		var expected *[models.MaxRewardLevel]int64
		if seen, ok := current[userID]; ok {
			if seen == row {
				continue
			}
			expected = &seen
		}

		swapped, err := s.repo.SwapLevelCounts(ctx, userID, expected, row)
		if err != nil {
			return updated, fmt.Errorf("failed to write level counts for user %d: %w", userID, err)
		}
		if !swapped {
			skipped++
			continue
		}
		updated++
	}

	zap.L().Info("Level tally reconciled",
		zap.Int("members", updated),
		zap.Int("skipped", skipped))
	return updated, nil
}
