package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
)

// PayoutService moves wallet balance out to external addresses, subject to admin review
type PayoutService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewPayoutService(repo *repository.Repository) *PayoutService {
	return &PayoutService{repo: repo, now: time.Now}
}

// RequestWithdrawal debits amount from the wallet and queues a payout.
// An empty address pays to the user's own wallet.
func (ps *PayoutService) RequestWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal, address string) (*models.PayoutRequest, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	user, err := ps.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if address == "" {
		address = user.WalletAddress
	}
	if _, err := ValidateWalletAddress(address); err != nil {
		return nil, err
	}

	req := &models.PayoutRequest{
		Reference:     uuid.NewString(),
		UserID:        userID,
		Amount:        amount.Round(2),
		WalletAddress: address,
		Status:        models.PayoutStatusPending,
	}

	created, err := ps.repo.CreatePayoutRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create payout request: %w", err)
	}
	if !created {
		return nil, ErrInsufficientBalance
	}

	zap.L().Info("Withdrawal requested",
		zap.Uint("user_id", userID),
		zap.String("reference", req.Reference),
		zap.String("amount", req.Amount.String()))
	return req, nil
}

// Approve marks a pending payout as paid
func (ps *PayoutService) Approve(ctx context.Context, id, adminUserID uint) (*models.PayoutRequest, error) {
	ok, err := ps.repo.MarkPayoutPaid(ctx, id, adminUserID, ps.now())
	if err != nil {
		return nil, err
	}
	return ps.reviewed(ctx, id, ok, "paid")
}

// Reject refunds a pending payout to the user's wallet
func (ps *PayoutService) Reject(ctx context.Context, id, adminUserID uint, note string) (*models.PayoutRequest, error) {
	ok, err := ps.repo.RejectPayout(ctx, id, adminUserID, note, ps.now())
	if err != nil {
		return nil, notFound(err, "payout request")
	}
	return ps.reviewed(ctx, id, ok, "rejected")
}

func (ps *PayoutService) reviewed(ctx context.Context, id uint, ok bool, outcome string) (*models.PayoutRequest, error) {
	req, err := ps.repo.GetPayoutRequest(ctx, id)
	if err != nil {
		return nil, notFound(err, "payout request")
	}
	if !ok {
		return nil, fmt.Errorf("%w: payout %d is %s", ErrInvalidInput, id, req.Status)
	}

	zap.L().Info("Payout reviewed",
		zap.Uint("payout_id", id),
		zap.String("outcome", outcome),
		zap.String("reference", req.Reference))
	return req, nil
}

// ListForUser returns the payout requests of userID
func (ps *PayoutService) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.PayoutRequest, int64, error) {
	return ps.repo.ListPayoutRequests(ctx, &userID, "", limit, offset)
}

// List returns payout requests across users, optionally filtered by status
func (ps *PayoutService) List(ctx context.Context, status models.PayoutStatus, limit, offset int) ([]models.PayoutRequest, int64, error) {
	return ps.repo.ListPayoutRequests(ctx, nil, status, limit, offset)
}

// Get returns one payout request
func (ps *PayoutService) Get(ctx context.Context, id uint) (*models.PayoutRequest, error) {
	req, err := ps.repo.GetPayoutRequest(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payout request: %w", ErrNotFound)
		}
		return nil, err
	}
	return req, nil
}
