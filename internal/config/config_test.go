package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Network.MaxLevel)
	assert.True(t, cfg.Network.InitialReward.Equal(decimal.NewFromInt(300)))
	assert.True(t, cfg.Network.LevelReward.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, int64(10), cfg.Network.DirectReferralUnlock)
	assert.Equal(t, TallyModeFull, cfg.Network.TallyMode)
	assert.Equal(t, 24*time.Hour, cfg.App.JWTTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.RateLimit.CleanupInterval)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.IdleTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("COMMISSION_INITIAL_REWARD", "250.50")
	t.Setenv("LEVEL_TALLY_MODE", "partial")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ACTIVATION_CODE_TTL", "48h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "250.5", cfg.Network.InitialReward.String())
	assert.Equal(t, TallyModePartial, cfg.Network.TallyMode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 48*time.Hour, cfg.Codes.TTL)
}

func TestLoadRateLimitEviction(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RATE_LIMIT_CLEANUP_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_IDLE_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.CleanupInterval)
	assert.Equal(t, time.Hour, cfg.RateLimit.IdleTTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown tally mode", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("LEVEL_TALLY_MODE", "sometimes")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("JWT_TTL", "forever")
		_, err := Load()
		assert.Error(t, err)
	})
}
