package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"GYMGATE_HTTP_ADDR" envDefault:":8080"`

	// DB
	Env    string `env:"GYMGATE_ENV" envDefault:"dev"` // "dev" | "prod"
	DBPath string `env:"GYMGATE_DB_PATH" envDefault:"./data/gymgate.db"`

	// Member identifiers: PREFIX-NNNN.
	MemberIDPrefix string `env:"GYMGATE_MEMBER_PREFIX" envDefault:"BCF"`

	// Minimum interval between two scans of the same code.
	ScanDebounceMS int `env:"GYMGATE_SCAN_DEBOUNCE_MS" envDefault:"500"`

	// "Expiring soon" threshold used by dashboard listings.
	ExpiryWarnDays int `env:"GYMGATE_EXPIRY_WARN_DAYS" envDefault:"7"`

	KnownKiosks []string `env:"GYMGATE_KNOWN_KIOSKS" envSeparator:","`

	// Kiosk heartbeat retention; 0 = keep forever.
	HeartbeatRetentionDays int `env:"GYMGATE_HEARTBEAT_RETENTION_DAYS" envDefault:"30"`
	PruneIntervalHours     int `env:"GYMGATE_PRUNE_INTERVAL_HOURS" envDefault:"6"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Env = strings.ToLower(cfg.Env)
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}

	return cfg, nil
}
