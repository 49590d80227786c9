package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mlm-platform/internal/config"
	"mlm-platform/internal/metrics"
	"mlm-platform/internal/repository"
)

// Credit is one planned commission payment
type Credit struct {
	UserID uint            `json:"user_id"`
	Hop    int             `json:"hop"`
	Amount decimal.Decimal `json:"amount"`
}

// DistributionReport describes what a commission walk did. Err is set when
// the walk was cut short; credits before the failure stay applied.
type DistributionReport struct {
	Planned []Credit `json:"planned"`
	Applied int      `json:"applied"`
	Err     error    `json:"-"`
}

// Truncated reports whether fewer credits were applied than the tree allows
func (r *DistributionReport) Truncated() bool {
	return r.Err != nil
}

// CommissionService pays the fixed level commissions up the referral chain
type CommissionService struct {
	store    UplineStore
	cfg      config.NetworkConfig
	maxLevel int
}

func NewCommissionService(store UplineStore, cfg config.NetworkConfig) *CommissionService {
	maxLevel := cfg.MaxLevel
	if maxLevel <= 0 {
		maxLevel = config.DefaultNetworkConfig().MaxLevel
	}
	return &CommissionService{store: store, cfg: cfg, maxLevel: maxLevel}
}

// AmountForHop returns the commission paid at a hop: the initial reward to
// the direct referrer, the level reward above it.
func (s *CommissionService) AmountForHop(hop int) decimal.Decimal {
	if hop == 1 {
		return s.cfg.InitialReward
	}
	return s.cfg.LevelReward
}

// Plan resolves the commission chain for a newly activated member. startID is
// the member's direct referrer. A lookup failure returns the credits
// resolved so far together with the error.
func (s *CommissionService) Plan(ctx context.Context, startID uint) ([]Credit, error) {
	credits := make([]Credit, 0, s.maxLevel)
	_, err := IterateAncestors(ctx, s.store, startID, s.maxLevel, func(hop int, userID uint) error {
		credits = append(credits, Credit{UserID: userID, Hop: hop, Amount: s.AmountForHop(hop)})
		return nil
	})
	return credits, err
}

// Distribute pays every planned credit in order. Each credit commits on its
// own, so a failure leaves earlier credits in place and skips the rest.
func (s *CommissionService) Distribute(ctx context.Context, startID, sourceUserID uint) *DistributionReport {
	report := &DistributionReport{}

	credits, err := s.Plan(ctx, startID)
	report.Planned = credits
	if err != nil {
		report.Err = err
		zap.L().Warn("Commission chain truncated during lookup",
			zap.Uint("start_user_id", startID),
			zap.Uint("source_user_id", sourceUserID),
			zap.Int("resolved", len(credits)),
			zap.Error(err))
	}

	for _, credit := range credits {
		applyErr := s.store.CreditCommission(ctx, repository.CommissionCredit{
			UserID:       credit.UserID,
			Hop:          credit.Hop,
			Amount:       credit.Amount,
			SourceUserID: sourceUserID,
		})
		if applyErr != nil {
			report.Err = fmt.Errorf("%w: credit user %d at hop %d: %v", ErrTransientLookup, credit.UserID, credit.Hop, applyErr)
			zap.L().Warn("Commission credit failed, stopping chain",
				zap.Uint("user_id", credit.UserID),
				zap.Int("hop", credit.Hop),
				zap.Uint("source_user_id", sourceUserID),
				zap.Error(applyErr))
			break
		}
		report.Applied++
		metrics.RecordCommission(credit.Hop)
	}

	metrics.RecordUplineWalk("commission", report.Applied, report.Truncated())
	return report
}
