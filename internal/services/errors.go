package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyActive        = errors.New("membership already active")
	ErrInvalidAuthorization = errors.New("activation code is invalid, used or expired")
	ErrNotClaimable         = errors.New("reward is not claimable")
	ErrAlreadyClaimed       = errors.New("reward already claimed")
	ErrTransientLookup      = errors.New("upline lookup failed")
	ErrReferrerInactive     = errors.New("referrer membership is not active")
	ErrAlreadyRegistered    = errors.New("wallet already registered")
	ErrInsufficientBalance  = errors.New("insufficient wallet balance")
	ErrInvalidWalletAddress = errors.New("invalid wallet address")
	ErrInvalidInput         = errors.New("invalid input")
	ErrForbidden            = errors.New("forbidden")
)

// notFound maps gorm's missing-row error onto ErrNotFound, naming what was missing
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
