package config_test

import (
	"testing"
	"time"

	"broker-office/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "broker_office", cfg.Database.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "broker-snapshots", cfg.Storage.Bucket)
	assert.Equal(t, "sellers", cfg.Sheet.SheetName)
	assert.Equal(t, 55, cfg.RateLimit.Limit)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, "sellers", cfg.Sync.Target)
	assert.True(t, cfg.Sync.SnapshotBeforeSync)
	assert.Equal(t, 10, cfg.Health.HealthWindow)
	assert.Equal(t, 30, cfg.Snapshot.RetentionDays)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("SYNC_AUTO_SYNC", "true")
	t.Setenv("RETRY_MAX_RETRIES", "2")

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.True(t, cfg.Sync.AutoSync)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
}
