// Package config loads daemon settings from the environment.
//
// Environment values seed the defaults of the command-line flags, so a flag
// given explicitly always wins. Every field has a built-in default that
// matches the historical behaviour of the service.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/fsguard/fsguard/internal/paths"
	"github.com/fsguard/fsguard/internal/quarantine"
	"github.com/fsguard/fsguard/internal/scan"
	"github.com/fsguard/fsguard/internal/server"
)

// Collision policies for quarantine moves.
const (
	CollisionOverwrite = string(quarantine.Overwrite)
	CollisionRename    = string(quarantine.Rename)
	CollisionReject    = string(quarantine.Reject)
)

// Daemon settings.
//
// Unset variables keep the value from [Default].
type Config struct {
	Address        string        `env:"FSGUARD_ADDRESS"`
	QuarantineDir  string        `env:"FSGUARD_QUARANTINE_DIR"`
	OnCollision    string        `env:"FSGUARD_ON_COLLISION"`
	MaxSessions    int           `env:"FSGUARD_MAX_SESSIONS"`
	AcceptInterval time.Duration `env:"FSGUARD_ACCEPT_INTERVAL"`
	IdleTimeout    time.Duration `env:"FSGUARD_IDLE_TIMEOUT"`
	BufferLimit    int           `env:"FSGUARD_BUFFER_LIMIT"`
	MaxSignatureKB int           `env:"FSGUARD_MAX_SIGNATURE_KB"`
	LogFile        string        `env:"FSGUARD_LOG_FILE"`
	MetricsAddress string        `env:"FSGUARD_METRICS_ADDRESS"`
}

// Returns the built-in configuration, ignoring the environment.
func Default() Config {
	return Config{
		Address:        server.DefaultAddress,
		QuarantineDir:  "./" + paths.DefaultQuarantine,
		OnCollision:    CollisionOverwrite,
		MaxSessions:    server.DefaultMaxSessions,
		AcceptInterval: server.DefaultAcceptInterval,
		BufferLimit:    server.DefaultBufferLimit,
		MaxSignatureKB: scan.DefaultMaxSignatureKB,
		LogFile:        paths.LogFile(),
	}
}

// Loads the configuration from FSGUARD_* environment variables.
//
// Starts from [Default] and validates the result. An empty log file
// resolves to [paths.LogFile].
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = paths.LogFile()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.Address == "":
		return fmt.Errorf("%w: address is empty", ErrInvalid)
	case c.QuarantineDir == "":
		return fmt.Errorf("%w: quarantine directory is empty", ErrInvalid)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max sessions must be positive, got %d", ErrInvalid, c.MaxSessions)
	case c.AcceptInterval <= 0:
		return fmt.Errorf("%w: accept interval must be positive, got %s", ErrInvalid, c.AcceptInterval)
	case c.IdleTimeout < 0:
		return fmt.Errorf("%w: idle timeout must not be negative, got %s", ErrInvalid, c.IdleTimeout)
	case c.BufferLimit <= 0:
		return fmt.Errorf("%w: buffer limit must be positive, got %d", ErrInvalid, c.BufferLimit)
	case c.MaxSignatureKB <= 0:
		return fmt.Errorf("%w: max signature size must be positive, got %d", ErrInvalid, c.MaxSignatureKB)
	}

	switch c.OnCollision {
	case CollisionOverwrite, CollisionRename, CollisionReject:
		return nil
	default:
		return fmt.Errorf("%w: unknown collision policy %q", ErrInvalid, c.OnCollision)
	}
}
