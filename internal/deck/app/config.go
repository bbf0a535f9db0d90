package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from the environment. The TAPDECK_* names are the ones
// the desktop shell has always used, so existing installs keep their state
// files.
type Config struct {
	Port int `env:"TAPDECK_PORT" envDefault:"5173"`

	StateDir  string `env:"TAPDECK_STATE_DIR"`
	StateFile string `env:"TAPDECK_STATE_FILE"`
	AuditFile string `env:"TAPDECK_AUDIT_FILE"`

	ChallengeTTL  time.Duration `env:"TAPDECK_CHALLENGE_TTL" envDefault:"5m"`
	TrustTTL      time.Duration `env:"TAPDECK_TRUST_TTL" envDefault:"720h"`
	SweepInterval time.Duration `env:"TAPDECK_SWEEP_INTERVAL" envDefault:"1m"`

	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig parses the environment and fills in the derived paths.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(os.TempDir(), "tapdeck-state")
	}
	if cfg.StateFile == "" {
		cfg.StateFile = filepath.Join(cfg.StateDir, "deck-state.json")
	}
	if cfg.AuditFile == "" {
		cfg.AuditFile = filepath.Join(cfg.StateDir, "paired-devices.json")
	}

	return cfg, nil
}
