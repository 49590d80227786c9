package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mlm-platform/internal/config"
	"mlm-platform/internal/metrics"
	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
)

// Activation paths
const (
	ActivationPathCode   = "code"
	ActivationPathDirect = "direct"
)

// ActivationOutcome is returned after the membership change committed.
// The upline reports describe the best-effort effects that followed.
type ActivationOutcome struct {
	UserID          uint                `json:"user_id"`
	ReferrerID      *uint               `json:"referrer_id,omitempty"`
	RewardsCreated  int                 `json:"rewards_created"`
	DirectReferrals int64               `json:"direct_referrals,omitempty"`
	ReferrerUnlock  bool                `json:"referrer_unlock,omitempty"`
	Commission      *DistributionReport `json:"commission,omitempty"`
	Propagation     *PropagationReport  `json:"propagation,omitempty"`
}

// UplineErr joins the errors that truncated the upline walks, if any
func (o *ActivationOutcome) UplineErr() error {
	var errs []error
	if o.Commission != nil && o.Commission.Err != nil {
		errs = append(errs, o.Commission.Err)
	}
	if o.Propagation != nil && o.Propagation.Err != nil {
		errs = append(errs, o.Propagation.Err)
	}
	return errors.Join(errs...)
}

// ActivationService turns a registered user into an active member and
// triggers the upline cascade.
type ActivationService struct {
	repo        *repository.Repository
	commissions *CommissionService
	network     *NetworkService
	rewards     *RewardService
	cfg         config.NetworkConfig
	now         func() time.Time
}

func NewActivationService(
	repo *repository.Repository,
	commissions *CommissionService,
	network *NetworkService,
	rewards *RewardService,
	cfg config.NetworkConfig,
) *ActivationService {
	return &ActivationService{
		repo:        repo,
		commissions: commissions,
		network:     network,
		rewards:     rewards,
		cfg:         cfg,
		now:         time.Now,
	}
}

// ActivateWithCode activates userID by redeeming an activation code
func (s *ActivationService) ActivateWithCode(ctx context.Context, userID uint, code string) (*ActivationOutcome, error) {
	user, err := s.precheck(ctx, userID)
	if err != nil {
		metrics.RecordActivation(ActivationPathCode, "rejected")
		return nil, err
	}

	if code == "" {
		metrics.RecordActivation(ActivationPathCode, "rejected")
		return nil, ErrInvalidAuthorization
	}
	ac, err := s.repo.GetActivationCode(ctx, code)
	if err != nil {
		metrics.RecordActivation(ActivationPathCode, "rejected")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidAuthorization
		}
		return nil, err
	}
	at := s.now()
	if ac.IsUsed || ac.IsExpired(at) {
		metrics.RecordActivation(ActivationPathCode, "rejected")
		return nil, ErrInvalidAuthorization
	}

	return s.activate(ctx, user, ActivationPathCode, at, func(tx *repository.Repository) error {
		consumed, err := tx.ConsumeActivationCode(ctx, ac.ID, user.ID, at)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrInvalidAuthorization
		}
		return nil
	})
}

// ActivateDirect activates userID without a code. Admin path.
func (s *ActivationService) ActivateDirect(ctx context.Context, userID uint) (*ActivationOutcome, error) {
	user, err := s.precheck(ctx, userID)
	if err != nil {
		metrics.RecordActivation(ActivationPathDirect, "rejected")
		return nil, err
	}
	return s.activate(ctx, user, ActivationPathDirect, s.now(), nil)
}

func (s *ActivationService) precheck(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if user.MembershipStatus {
		return nil, ErrAlreadyActive
	}
	return user, nil
}

// activate commits the membership change and reward snapshot in one
// transaction, then runs the upline effects outside it.
func (s *ActivationService) activate(ctx context.Context, user *models.User, path string, at time.Time, authorize func(tx *repository.Repository) error) (*ActivationOutcome, error) {
	outcome := &ActivationOutcome{UserID: user.ID, ReferrerID: user.ReferrerID}

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if authorize != nil {
			if err := authorize(tx); err != nil {
				return err
			}
		}

		activated, err := tx.ActivateUser(ctx, user.ID, at)
		if err != nil {
			return err
		}
		if !activated {
			return ErrAlreadyActive
		}

		created, err := tx.SnapshotUserRewards(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to snapshot rewards: %w", err)
		}
		outcome.RewardsCreated = created

		return tx.CreateLevelReward(ctx, user.ID)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyActive) || errors.Is(err, ErrInvalidAuthorization) {
			metrics.RecordActivation(path, "rejected")
			return nil, err
		}
		metrics.RecordActivation(path, "error")
		return nil, fmt.Errorf("failed to activate user %d: %w", user.ID, err)
	}

	zap.L().Info("Membership activated",
		zap.Uint("user_id", user.ID),
		zap.String("path", path),
		zap.Int("rewards", outcome.RewardsCreated))

	if user.ReferrerID != nil {
		s.runUpline(ctx, outcome, *user.ReferrerID)
	}

	result := "activated"
	if outcome.UplineErr() != nil {
		result = "activated_truncated"
	}
	metrics.RecordActivation(path, result)
	return outcome, nil
}

func (s *ActivationService) runUpline(ctx context.Context, outcome *ActivationOutcome, referrerID uint) {
	s.countDirectReferral(ctx, outcome, referrerID)
	outcome.Commission = s.commissions.Distribute(ctx, referrerID, outcome.UserID)
	outcome.Propagation = s.network.Propagate(ctx, referrerID)
}

// countDirectReferral bumps the referrer's active referral count and unlocks
// level 1 on the exact threshold, so later activations never re-unlock it.
func (s *ActivationService) countDirectReferral(ctx context.Context, outcome *ActivationOutcome, referrerID uint) {
	count, err := s.repo.IncrementActiveReferrals(ctx, referrerID)
	if err != nil {
		zap.L().Warn("Failed to count direct referral",
			zap.Uint("referrer_id", referrerID),
			zap.Uint("user_id", outcome.UserID),
			zap.Error(err))
		return
	}
	outcome.DirectReferrals = count

	if count != s.cfg.DirectReferralUnlock {
		return
	}
	unlocked, err := s.rewards.Unlock(ctx, referrerID, 1)
	if err != nil {
		zap.L().Error("Failed to unlock direct referral reward",
			zap.Uint("referrer_id", referrerID),
			zap.Error(err))
		return
	}
	outcome.ReferrerUnlock = unlocked

	if unlocked && s.cfg.TallyMode == config.TallyModePartial {
		if err := s.repo.IncrementLevelCount(ctx, referrerID, 1); err != nil {
			zap.L().Warn("Failed to increment level tally",
				zap.Uint("user_id", referrerID),
				zap.Int("level", 1),
				zap.Error(err))
		}
	}
}
