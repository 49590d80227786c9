package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlm-platform/internal/config"
	"mlm-platform/internal/models"
	"mlm-platform/internal/testutil"
)

func TestClaimRequiresUnlock(t *testing.T) {
	e := newTestEngine(t, config.DefaultNetworkConfig(), nil)
	ctx := context.Background()
	defs := testutil.SeedCatalog(t, e.db)

	u := e.join(t, nil)
	_, err := e.activation.ActivateDirect(ctx, u.ID)
	require.NoError(t, err)

	_, err = e.rewards.Claim(ctx, u.ID, defs[0].ID)
	assert.ErrorIs(t, err, ErrNotClaimable)

	_, err = e.rewards.Claim(ctx, u.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	other := e.join(t, nil)
	_, err = e.rewards.Claim(ctx, other.ID, defs[0].ID)
	assert.ErrorIs(t, err, ErrNotFound, "inactive users have no reward rows")

	assertBalance(t, e.reload(t, u.ID), 0, 0)
}

func TestUnlockIsIdempotent(t *testing.T) {
	e := newTestEngine(t, config.DefaultNetworkConfig(), nil)
	ctx := context.Background()
	testutil.SeedCatalog(t, e.db)

	u := e.join(t, nil)
	_, err := e.activation.ActivateDirect(ctx, u.ID)
	require.NoError(t, err)

	unlocked, err := e.rewards.Unlock(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.True(t, unlocked)

	unlocked, err = e.rewards.Unlock(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.False(t, unlocked)

	unlocked, err = e.rewards.Unlock(ctx, u.ID, 6)
	require.NoError(t, err)
	assert.False(t, unlocked, "no level 6 entry in the catalog")

	_, err = e.rewards.Unlock(ctx, u.ID, 7)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConcurrentClaimsCreditOnce(t *testing.T) {
	e := newTestEngine(t, config.DefaultNetworkConfig(), nil)
	ctx := context.Background()
	defs := testutil.SeedCatalog(t, e.db)

	u := e.join(t, nil)
	_, err := e.activation.ActivateDirect(ctx, u.ID)
	require.NoError(t, err)
	_, err = e.rewards.Unlock(ctx, u.ID, 2)
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.rewards.Claim(ctx, u.ID, defs[1].ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	}
	assert.Equal(t, 1, succeeded)
	assertBalance(t, e.reload(t, u.ID), 500, 0)

	entries, total, err := e.repo.ListWalletTransactions(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, models.TxTypeRewardClaim, entries[0].Type)
}

func TestClaimPaysCurrentCatalogAmount(t *testing.T) {
	e := newTestEngine(t, config.DefaultNetworkConfig(), nil)
	ctx := context.Background()
	defs := testutil.SeedCatalog(t, e.db)

	u := e.join(t, nil)
	_, err := e.activation.ActivateDirect(ctx, u.ID)
	require.NoError(t, err)
	_, err = e.rewards.Unlock(ctx, u.ID, 1)
	require.NoError(t, err)

	_, err = e.rewards.UpdateDefinition(ctx, defs[0].ID, RewardDefinitionInput{
		Name:       defs[0].Name,
		Level:      1,
		ReqMembers: 10,
		Amount:     decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	result, err := e.rewards.Claim(ctx, u.ID, defs[0].ID)
	require.NoError(t, err)
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(150)))
}

func TestSnapshotIgnoresLaterCatalogEntries(t *testing.T) {
	e := newTestEngine(t, config.DefaultNetworkConfig(), nil)
	ctx := context.Background()
	testutil.SeedCatalog(t, e.db)

	early := e.join(t, nil)
	_, err := e.activation.ActivateDirect(ctx, early.ID)
	require.NoError(t, err)

	def, err := e.rewards.CreateDefinition(ctx, RewardDefinitionInput{
		Name:       "Crown Bonus",
		Level:      6,
		ReqMembers: 1000000,
		Amount:     decimal.NewFromInt(250000),
	})
	require.NoError(t, err)
	assert.Equal(t, "level-6-crown-bonus", def.Slug)

	late := e.join(t, nil)
	_, err = e.activation.ActivateDirect(ctx, late.ID)
	require.NoError(t, err)

	earlyState, err := e.rewards.GetUserRewardState(ctx, early.ID)
	require.NoError(t, err)
	lateState, err := e.rewards.GetUserRewardState(ctx, late.ID)
	require.NoError(t, err)
	assert.Len(t, earlyState.Rewards, 5)
	assert.Len(t, lateState.Rewards, 6)
}

func TestRewardDefinitionValidation(t *testing.T) {
	e := newTestEngine(t, config.DefaultNetworkConfig(), nil)
	ctx := context.Background()

	cases := []RewardDefinitionInput{
		{Name: "", Level: 1, Amount: decimal.NewFromInt(1)},
		{Name: "Too Deep", Level: 7, Amount: decimal.NewFromInt(1)},
		{Name: "Negative", Level: 1, Amount: decimal.NewFromInt(-1)},
	}
	for _, in := range cases {
		_, err := e.rewards.CreateDefinition(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %+v", in)
	}

	_, err := e.rewards.UpdateDefinition(ctx, 404, RewardDefinitionInput{Name: "Missing", Level: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedCatalogFromFile(t *testing.T) {
	e := newTestEngine(t, config.DefaultNetworkConfig(), nil)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "rewards.yaml")
	content := `rewards:
  - slug: starter-bonus
    name: Starter Bonus
    level: 1
    req_members: 10
    amount: "100.00"
  - name: Team Builder
    level: 2
    req_members: 100
    amount: "500"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	entries, err := LoadCatalogFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	created, err := e.rewards.SeedCatalog(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = e.rewards.SeedCatalog(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 0, created, "seeding is idempotent")

	catalog, err := e.rewards.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, "starter-bonus", catalog[0].Slug)
	assert.Equal(t, "level-2-team-builder", catalog[1].Slug)

	_, err = e.rewards.SeedCatalog(ctx, []CatalogEntry{{Name: "Broken", Level: 1, Amount: "lots"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
