package services

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"mlm-platform/internal/models"
)

// AuthService handles wallet login
type AuthService struct {
	users *UserService
}

// NewAuthService creates a new AuthService
func NewAuthService(users *UserService) *AuthService {
	return &AuthService{users: users}
}

// ValidateWalletAddress checks that address is a base58 ed25519 public key
func ValidateWalletAddress(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidWalletAddress, err)
	}
	return pk, nil
}

// VerifySignature checks a base58 signature of message by the wallet
func VerifySignature(walletAddress, message, signature string) error {
	pk, err := ValidateWalletAddress(walletAddress)
	if err != nil {
		return err
	}
	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: malformed signature", ErrInvalidInput)
	}
	if !ed25519.Verify(ed25519.PublicKey(pk[:]), []byte(message), sig) {
		return fmt.Errorf("%w: signature does not match wallet", ErrForbidden)
	}
	return nil
}

// ParseReferralCode turns a referral code into a referrer id. The code is
// the referrer's user id; an empty code means no referrer.
func ParseReferralCode(code string) (*uint, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(code, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: referral code %q", ErrInvalidInput, code)
	}
	referrerID := uint(id)
	return &referrerID, nil
}

// ProcessWalletLogin finds the user owning walletAddress, registering it
// under the referral code on first login.
func (s *AuthService) ProcessWalletLogin(ctx context.Context, walletAddress, referralCode string) (*models.User, bool, error) {
	if _, err := ValidateWalletAddress(walletAddress); err != nil {
		return nil, false, err
	}

	user, err := s.users.GetUserByWallet(ctx, walletAddress)
	if err == nil {
		zap.L().Info("User logged in", zap.Uint("user_id", user.ID), zap.String("wallet", walletAddress))
		return user, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	referrerID, err := ParseReferralCode(referralCode)
	if err != nil {
		return nil, false, err
	}

	user, err = s.users.Register(ctx, RegisterInput{WalletAddress: walletAddress, ReferrerID: referrerID})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
