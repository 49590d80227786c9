package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mlm-platform/internal/config"
	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
	"mlm-platform/internal/utils"
)

// ActivationCodeService issues and moves activation codes
type ActivationCodeService struct {
	repo *repository.Repository
	cfg  config.CodesConfig
	now  func() time.Time
}

func NewActivationCodeService(repo *repository.Repository, cfg config.CodesConfig) *ActivationCodeService {
	return &ActivationCodeService{repo: repo, cfg: cfg, now: time.Now}
}

// Generate creates count fresh codes, optionally owned by ownerID.
// A zero ttl uses the configured default.
func (s *ActivationCodeService) Generate(ctx context.Context, count int, ownerID *uint, ttl time.Duration) ([]models.ActivationCode, error) {
	if count < 1 || (s.cfg.BatchMax > 0 && count > s.cfg.BatchMax) {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidInput, s.cfg.BatchMax)
	}
	if ttl <= 0 {
		ttl = s.cfg.TTL
	}
	if ownerID != nil {
		if _, err := s.repo.GetUserByID(ctx, *ownerID); err != nil {
			return nil, notFound(err, "owner")
		}
	}

	expiresAt := s.now().Add(ttl)
	codes := make([]models.ActivationCode, 0, count)
	seen := make(map[string]bool, count)
	for len(codes) < count {
		code, err := utils.GenerateActivationCode()
		if err != nil {
			return nil, err
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, models.ActivationCode{
			Code:        code,
			ExpiresAt:   expiresAt,
			OwnerUserID: ownerID,
		})
	}

	if err := s.repo.CreateActivationCodes(ctx, codes); err != nil {
		return nil, fmt.Errorf("failed to store activation codes: %w", err)
	}

	zap.L().Info("Activation codes generated",
		zap.Int("count", count),
		zap.Time("expires_at", expiresAt))
	return codes, nil
}

// Transfer hands an unused code owned by fromUserID to toUserID
func (s *ActivationCodeService) Transfer(ctx context.Context, code string, fromUserID, toUserID uint) error {
	if fromUserID == toUserID {
		return fmt.Errorf("%w: cannot transfer a code to yourself", ErrInvalidInput)
	}
	if _, err := s.repo.GetUserByID(ctx, toUserID); err != nil {
		return notFound(err, "recipient")
	}

	ok, err := s.repo.TransferActivationCode(ctx, code, fromUserID, toUserID)
	if err != nil {
		return fmt.Errorf("failed to transfer code: %w", err)
	}
	if !ok {
		return fmt.Errorf("activation code: %w", ErrNotFound)
	}

	zap.L().Info("Activation code transferred",
		zap.Uint("from_user_id", fromUserID),
		zap.Uint("to_user_id", toUserID))
	return nil
}

// ListOwned returns the codes owned by userID
func (s *ActivationCodeService) ListOwned(ctx context.Context, userID uint) ([]models.ActivationCode, error) {
	return s.repo.ListActivationCodesByOwner(ctx, userID)
}
