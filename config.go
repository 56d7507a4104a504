package tasknest

import (
	"errors"
	"time"

	"github.com/tasknest/tasknest/password"
)

// Config holds all engine tunables. Instances are configured before Build and
// treated as immutable afterwards.
type Config struct {
	Session  SessionConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// SessionConfig controls the Redis session store.
type SessionConfig struct {
	RedisPrefix string
	TTL         time.Duration
}

// PasswordConfig carries the bcrypt cost factor. Higher cost means slower
// hashing and more brute-force resistance.
type PasswordConfig struct {
	Cost int
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production defaults: two-week sessions under the
// "tn" key prefix, the default bcrypt cost, audit and metrics enabled.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: "tn",
			TTL:         14 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Cost: password.DefaultCost,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Session.RedisPrefix == "" {
		return errors.New("session redis prefix must not be empty")
	}
	if cfg.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	// Cost bounds are enforced by password.New at build time.
	return nil
}
