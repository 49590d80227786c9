package services

import (
	"context"
	"fmt"

	"mlm-platform/internal/repository"
)

// ReferrerLookup resolves the parent of a node in the referral tree
type ReferrerLookup interface {
	ReferrerOf(ctx context.Context, userID uint) (*uint, error)
}

// UplineStore is the persistence the upline walkers write through.
// *repository.Repository satisfies it.
type UplineStore interface {
	ReferrerLookup
	CreditCommission(ctx context.Context, credit repository.CommissionCredit) error
	IncrementNetworkSize(ctx context.Context, userID uint) (int64, error)
	IncrementLevelCount(ctx context.Context, userID uint, level int) error
}

// IterateAncestors calls fn with (1, startID), then with each ancestor of
// startID and its hop number, until the root is passed or maxDepth hops
// have been visited. maxDepth <= 0 walks all the way to the root.
//
// A failed referrer lookup stops the walk with ErrTransientLookup. An error
// from fn stops it and is returned unchanged. The number of visited hops is
// returned in both cases.
func IterateAncestors(ctx context.Context, lookup ReferrerLookup, startID uint, maxDepth int, fn func(hop int, userID uint) error) (int, error) {
	current := startID
	for hop := 1; ; hop++ {
		if err := fn(hop, current); err != nil {
			return hop - 1, err
		}
		if maxDepth > 0 && hop >= maxDepth {
			return hop, nil
		}

		parent, err := lookup.ReferrerOf(ctx, current)
		if err != nil {
			return hop, fmt.Errorf("%w: referrer of user %d: %v", ErrTransientLookup, current, err)
		}
		if parent == nil {
			return hop, nil
		}
		current = *parent
	}
}
