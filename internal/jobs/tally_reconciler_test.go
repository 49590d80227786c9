package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlm-platform/internal/config"
	"mlm-platform/internal/models"
	"mlm-platform/internal/repository"
	"mlm-platform/internal/services"
	"mlm-platform/internal/testutil"
)

func TestRunOnceRebuildsCounters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewRepository(db)
	chain := testutil.CreateChain(t, db, 3)

	job := NewTallyReconciler(services.NewTallyService(repo, config.DefaultNetworkConfig()), time.Minute)
	require.NoError(t, job.RunOnce(context.Background()))

	row, err := repo.GetLevelReward(context.Background(), chain[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, row.Level1Count)
	assert.EqualValues(t, 1, row.Level2Count)
}

func TestStartRunsImmediately(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewRepository(db)
	chain := testutil.CreateChain(t, db, 2)

	job := NewTallyReconciler(services.NewTallyService(repo, config.DefaultNetworkConfig()), time.Hour)
	require.NoError(t, job.Start())
	defer func() { assert.NoError(t, job.Stop()) }()

	assert.Eventually(t, func() bool {
		var row models.LevelReward
		if err := db.Where("user_id = ?", chain[0].ID).First(&row).Error; err != nil {
			return false
		}
		return row.Level1Count == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStopWithoutStart(t *testing.T) {
	job := NewTallyReconciler(nil, time.Minute)
	assert.NoError(t, job.Stop())
}
