package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvSessionTTL           = "ARGUS_SESSION_TTL"
	EnvSessionSweepInterval = "ARGUS_SESSION_SWEEP_INTERVAL"
)

// SessionConfig holds analysis session retention settings.
type SessionConfig struct {
	// TTL is how long an idle session survives before the sweeper
	// removes it.
	TTL           string `toml:"ttl"`
	SweepInterval string `toml:"sweep_interval"`
}

// TTLDuration returns TTL as a time.Duration.
func (c *SessionConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// SweepIntervalDuration returns SweepInterval as a time.Duration.
func (c *SessionConfig) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and
// validation.
func (c *SessionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SessionConfig) Merge(overlay *SessionConfig) {
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}
}

func (c *SessionConfig) loadDefaults() {
	if c.TTL == "" {
		c.TTL = "30m"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "5m"
	}
}

func (c *SessionConfig) loadEnv() {
	if v := os.Getenv(EnvSessionTTL); v != "" {
		c.TTL = v
	}
	if v := os.Getenv(EnvSessionSweepInterval); v != "" {
		c.SweepInterval = v
	}
}

func (c *SessionConfig) validate() error {
	ttl, err := time.ParseDuration(c.TTL)
	if err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	sweep, err := time.ParseDuration(c.SweepInterval)
	if err != nil {
		return fmt.Errorf("invalid sweep_interval: %w", err)
	}
	if sweep <= 0 {
		return fmt.Errorf("sweep_interval must be positive")
	}
	return nil
}
