package config_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kashguard/go-escrow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintServiceEnv(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(cfg, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestEscrowDefaults(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()

	assert.Equal(t, 15*time.Minute, cfg.Escrow.StartTimeout)
	assert.Equal(t, 120*time.Second, cfg.Escrow.HeartbeatInterval)
	assert.Equal(t, 180*time.Second, cfg.Escrow.GracePeriod)
	assert.Equal(t, 168*time.Hour, cfg.Escrow.AutoReleaseDelay)
	assert.Equal(t, int64(9000), cfg.Escrow.ProgressiveCapBps)
	assert.Equal(t, int64(1000), cfg.Escrow.PlatformFeeBps)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ESCROW_START_TIMEOUT_MINUTES", "30")
	t.Setenv("ESCROW_PLATFORM_FEE_BPS", "250")
	t.Setenv("PGHOST", "db.internal")

	cfg := config.DefaultServiceConfigFromEnv()

	require.Equal(t, 30*time.Minute, cfg.Escrow.StartTimeout)
	require.Equal(t, int64(250), cfg.Escrow.PlatformFeeBps)
	assert.Contains(t, cfg.Database.ConnectionString(), "host=db.internal")
}
