package app_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tapdeck-labs/deckd/internal/deck/app"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 5173, cfg.Port)
	require.Equal(t, 5*time.Minute, cfg.ChallengeTTL)
	require.Equal(t, 720*time.Hour, cfg.TrustTTL)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)

	// Derived paths land under the state dir
	require.NotEmpty(t, cfg.StateDir)
	require.Equal(t, filepath.Join(cfg.StateDir, "deck-state.json"), cfg.StateFile)
	require.Equal(t, filepath.Join(cfg.StateDir, "paired-devices.json"), cfg.AuditFile)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("TAPDECK_PORT", "9000")
	t.Setenv("TAPDECK_STATE_DIR", "/var/lib/tapdeck")
	t.Setenv("TAPDECK_CHALLENGE_TTL", "90s")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "/var/lib/tapdeck", cfg.StateDir)
	require.Equal(t, filepath.Join("/var/lib/tapdeck", "deck-state.json"), cfg.StateFile)
	require.Equal(t, 90*time.Second, cfg.ChallengeTTL)
	require.Equal(t, "text", cfg.LogFormat)
}

func TestLoadConfigExplicitStateFileWins(t *testing.T) {
	t.Setenv("TAPDECK_STATE_FILE", "/custom/deck.json")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "/custom/deck.json", cfg.StateFile)
}
