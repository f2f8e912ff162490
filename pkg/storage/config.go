package storage

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds Azure Blob Storage connection parameters.
type Config struct {
	Enabled          bool   `toml:"enabled"`
	Container        string `toml:"container"`
	ConnectionString string `toml:"connection_string"`
}

// Env maps config fields to environment variable names for override
// injection.
type Env struct {
	Enabled          string
	Container        string
	ConnectionString string
}

// Finalize applies defaults, environment variable overrides, and
// validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled

	if overlay.Container != "" {
		c.Container = overlay.Container
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
}

func (c *Config) loadDefaults() {
	if c.Container == "" {
		c.Container = "snapshots"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.Container != "" {
		if v := os.Getenv(env.Container); v != "" {
			c.Container = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Container == "" {
		return fmt.Errorf("container required")
	}
	if c.ConnectionString == "" {
		return fmt.Errorf("connection_string required")
	}
	return nil
}
