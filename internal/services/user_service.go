package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
	"mlm-platform/internal/utils"
)

const nicknameAttempts = 5

// UserService owns the user directory and the referral tree
type UserService struct {
	repo *repository.Repository
}

// NewUserService creates a new UserService
func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// RegisterInput describes a new directory entry
type RegisterInput struct {
	WalletAddress string
	Nickname      string
	ReferrerID    *uint
}

// UplineMember is an ancestor and its distance from the user
type UplineMember struct {
	Hop      int    `json:"hop"`
	UserID   uint   `json:"user_id"`
	Nickname string `json:"nickname"`
	Active   bool   `json:"membership_status"`
}

// Register creates an inactive user. The referrer, when given, must exist
// and already be an active member; it can never change afterwards.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	wallet := strings.TrimSpace(in.WalletAddress)
	if wallet == "" {
		return nil, fmt.Errorf("%w: wallet address is required", ErrInvalidInput)
	}

	if _, err := s.repo.GetUserByWallet(ctx, wallet); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if in.ReferrerID != nil {
		referrer, err := s.repo.GetUserByID(ctx, *in.ReferrerID)
		if err != nil {
			return nil, notFound(err, "referrer")
		}
		if !referrer.MembershipStatus {
			return nil, ErrReferrerInactive
		}
	}

	nickname, err := s.pickNickname(ctx, strings.TrimSpace(in.Nickname))
	if err != nil {
		return nil, err
	}

	user := &models.User{
		WalletAddress: wallet,
		Nickname:      nickname,
		ReferrerID:    in.ReferrerID,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	fields := []zap.Field{zap.Uint("user_id", user.ID), zap.String("wallet", wallet)}
	if user.ReferrerID != nil {
		fields = append(fields, zap.Uint("referrer_id", *user.ReferrerID))
	}
	zap.L().Info("User registered", fields...)
	return user, nil
}

func (s *UserService) pickNickname(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		if s.nicknameTaken(ctx, requested) {
			return "", fmt.Errorf("%w: nickname %q is taken", ErrInvalidInput, requested)
		}
		return requested, nil
	}

	for i := 0; i < nicknameAttempts; i++ {
		nickname, err := utils.GenerateNickname()
		if err != nil {
			return "", err
		}
		if !s.nicknameTaken(ctx, nickname) {
			return nickname, nil
		}
	}
	return "", errors.New("failed to generate a unique nickname")
}

func (s *UserService) nicknameTaken(ctx context.Context, nickname string) bool {
	var count int64
	s.repo.DB().WithContext(ctx).Model(&models.User{}).Where("nickname = ?", nickname).Count(&count)
	return count > 0
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// WalletOf returns the wallet registered to userID. found is false when the
// user does not exist.
func (s *UserService) WalletOf(ctx context.Context, userID uint) (string, bool, error) {
	user, err := s.GetUserByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return user.WalletAddress, true, nil
}

// GetUserByWallet retrieves a user by wallet address
func (s *UserService) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	user, err := s.repo.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// GetDirectReferrals returns the users registered under userID
func (s *UserService) GetDirectReferrals(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.GetDirectReferrals(ctx, userID)
}

// GetUpline returns up to maxDepth ancestors of userID, nearest first
func (s *UserService) GetUpline(ctx context.Context, userID uint, maxDepth int) ([]UplineMember, error) {
	parent, err := s.repo.ReferrerOf(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	upline := []UplineMember{}
	if parent == nil {
		return upline, nil
	}

	_, err = IterateAncestors(ctx, s.repo, *parent, maxDepth, func(hop int, ancestorID uint) error {
		ancestor, err := s.repo.GetUserByID(ctx, ancestorID)
		if err != nil {
			return err
		}
		upline = append(upline, UplineMember{
			Hop:      hop,
			UserID:   ancestor.ID,
			Nickname: ancestor.Nickname,
			Active:   ancestor.MembershipStatus,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return upline, nil
}

// GetWalletHistory returns the ledger of userID
func (s *UserService) GetWalletHistory(ctx context.Context, userID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	return s.repo.ListWalletTransactions(ctx, userID, limit, offset)
}
