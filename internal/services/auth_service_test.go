package services

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"strconv"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlm-platform/internal/config"
	"mlm-platform/internal/testutil"
)

func TestVerifySignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	wallet := base58.Encode(pub)

	message := "Sign in to the network: nonce 42"
	sig := base58.Encode(ed25519.Sign(priv, []byte(message)))

	assert.NoError(t, VerifySignature(wallet, message, sig))
	assert.ErrorIs(t, VerifySignature(wallet, "another message", sig), ErrForbidden)
	assert.ErrorIs(t, VerifySignature(wallet, message, "short"), ErrInvalidInput)
	assert.ErrorIs(t, VerifySignature("bad-wallet", message, sig), ErrInvalidWalletAddress)
}

func TestParseReferralCode(t *testing.T) {
	id, err := ParseReferralCode("")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = ParseReferralCode(" 17 ")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.EqualValues(t, 17, *id)

	_, err = ParseReferralCode("abc")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseReferralCode("0")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProcessWalletLogin(t *testing.T) {
	e := newTestEngine(t, config.DefaultNetworkConfig(), nil)
	authService := NewAuthService(e.users)
	ctx := context.Background()

	referrer := testutil.CreateUser(t, e.db, nil, true)
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	wallet := base58.Encode(pub)

	user, created, err := authService.ProcessWalletLogin(ctx, wallet, strconv.FormatUint(uint64(referrer.ID), 10))
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, user.ReferrerID)
	assert.Equal(t, referrer.ID, *user.ReferrerID)

	again, created, err := authService.ProcessWalletLogin(ctx, wallet, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	_, _, err = authService.ProcessWalletLogin(ctx, "wallet-1", "")
	assert.ErrorIs(t, err, ErrInvalidWalletAddress)
}
