package services

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
	"mlm-platform/internal/testutil"
)

func TestPayoutLifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewRepository(db)
	payouts := NewPayoutService(repo)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, nil, true)
	admin := testutil.CreateUser(t, db, nil, true)
	require.NoError(t, db.Model(user).Update("wallet_balance", decimal.NewFromInt(1000)).Error)
	address := solana.NewWallet().PublicKey().String()

	_, err := payouts.RequestWithdrawal(ctx, user.ID, decimal.NewFromInt(100), "not-base58-0OIl")
	assert.ErrorIs(t, err, ErrInvalidWalletAddress)

	_, err = payouts.RequestWithdrawal(ctx, user.ID, decimal.Zero, address)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = payouts.RequestWithdrawal(ctx, user.ID, decimal.NewFromInt(5000), address)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	first, err := payouts.RequestWithdrawal(ctx, user.ID, decimal.NewFromInt(400), address)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusPending, first.Status)
	assert.NotEmpty(t, first.Reference)

	second, err := payouts.RequestWithdrawal(ctx, user.ID, decimal.NewFromInt(250), address)
	require.NoError(t, err)

	fresh, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(350)))

	paid, err := payouts.Approve(ctx, first.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusPaid, paid.Status)

	_, err = payouts.Reject(ctx, first.ID, admin.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidInput, "paid requests cannot be rejected")

	rejected, err := payouts.Reject(ctx, second.ID, admin.ID, "address on block list")
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusRejected, rejected.Status)

	fresh, err = repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(600)))

	_, err = payouts.Approve(ctx, 999, admin.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	mine, total, err := payouts.ListForUser(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, mine, 2)

	pending, total, err := payouts.List(ctx, models.PayoutStatusPending, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, pending)
}
