package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "release", cfg.Mode)
	require.Equal(t, "127.0.0.1", cfg.Host)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, int64(32768), cfg.ReadLimit)
	require.Equal(t, 30*time.Second, cfg.PingPeriod)
	require.Equal(t, 2*time.Minute, cfg.SessionTimeout)
	require.Equal(t, 5*time.Second, cfg.ReclaimTimeout)
	require.Equal(t, 256, cfg.MaxSessions)
}

func TestSigningSeedFromEnv(t *testing.T) {
	t.Setenv("CONFIG_ENV", "nonexistent")
	t.Setenv("SIGNING_KEY_SEED", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.SigningKeySeed)
}
