package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvResultsSnapshotPath    = "ARGUS_RESULTS_SNAPSHOT_PATH"
	EnvResultsFallbackPath    = "ARGUS_RESULTS_FALLBACK_PATH"
	EnvResultsBlobKey         = "ARGUS_RESULTS_BLOB_KEY"
	EnvResultsAttributionPath = "ARGUS_RESULTS_ATTRIBUTION_PATH"
	EnvResultsMemoryFallback  = "ARGUS_RESULTS_MEMORY_FALLBACK"
	EnvResultsMinDate         = "ARGUS_RESULTS_MIN_DATE"
	EnvResultsMaxDate         = "ARGUS_RESULTS_MAX_DATE"
	EnvResultsDefaultDate     = "ARGUS_RESULTS_DEFAULT_DATE"
)

const calendarLayout = "2006-01-02"

// ResultsConfig holds the detection-result loading chain and the
// calendar window the dashboard offers for analysis.
type ResultsConfig struct {
	// SnapshotPath is the primary pipeline export read at warm-up.
	SnapshotPath string `toml:"snapshot_path"`
	// FallbackPath is the reduced export tried when the primary is
	// missing or unreadable.
	FallbackPath string `toml:"fallback_path"`
	// BlobKey names the snapshot blob tried when storage is enabled.
	BlobKey string `toml:"blob_key"`
	// AttributionPath optionally points at a feature attribution
	// artifact aligned row-for-row with the snapshot.
	AttributionPath string `toml:"attribution_path"`
	// MemoryFallback keeps the service demonstrable with a built-in
	// dataset when every configured source fails.
	MemoryFallback *bool  `toml:"memory_fallback"`
	MinDate        string `toml:"min_date"`
	MaxDate        string `toml:"max_date"`
	DefaultDate    string `toml:"default_date"`
}

// MemoryFallbackEnabled reports whether the built-in dataset terminates
// the source chain.
func (c *ResultsConfig) MemoryFallbackEnabled() bool {
	return c.MemoryFallback == nil || *c.MemoryFallback
}

// Finalize applies defaults, environment variable overrides, and
// validation.
func (c *ResultsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ResultsConfig) Merge(overlay *ResultsConfig) {
	if overlay.SnapshotPath != "" {
		c.SnapshotPath = overlay.SnapshotPath
	}
	if overlay.FallbackPath != "" {
		c.FallbackPath = overlay.FallbackPath
	}
	if overlay.BlobKey != "" {
		c.BlobKey = overlay.BlobKey
	}
	if overlay.AttributionPath != "" {
		c.AttributionPath = overlay.AttributionPath
	}
	if overlay.MemoryFallback != nil {
		c.MemoryFallback = overlay.MemoryFallback
	}
	if overlay.MinDate != "" {
		c.MinDate = overlay.MinDate
	}
	if overlay.MaxDate != "" {
		c.MaxDate = overlay.MaxDate
	}
	if overlay.DefaultDate != "" {
		c.DefaultDate = overlay.DefaultDate
	}
}

func (c *ResultsConfig) loadDefaults() {
	if c.SnapshotPath == "" {
		c.SnapshotPath = "full_pivot.csv"
	}
	if c.FallbackPath == "" {
		c.FallbackPath = "test_pivot.csv"
	}
	if c.BlobKey == "" {
		c.BlobKey = "full_pivot.csv"
	}
	if c.MinDate == "" {
		c.MinDate = "2011-01-01"
	}
	if c.MaxDate == "" {
		c.MaxDate = "2011-12-31"
	}
	if c.DefaultDate == "" {
		c.DefaultDate = "2011-06-01"
	}
}

func (c *ResultsConfig) loadEnv() {
	if v := os.Getenv(EnvResultsSnapshotPath); v != "" {
		c.SnapshotPath = v
	}
	if v := os.Getenv(EnvResultsFallbackPath); v != "" {
		c.FallbackPath = v
	}
	if v := os.Getenv(EnvResultsBlobKey); v != "" {
		c.BlobKey = v
	}
	if v := os.Getenv(EnvResultsAttributionPath); v != "" {
		c.AttributionPath = v
	}
	if v := os.Getenv(EnvResultsMemoryFallback); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.MemoryFallback = &enabled
		}
	}
	if v := os.Getenv(EnvResultsMinDate); v != "" {
		c.MinDate = v
	}
	if v := os.Getenv(EnvResultsMaxDate); v != "" {
		c.MaxDate = v
	}
	if v := os.Getenv(EnvResultsDefaultDate); v != "" {
		c.DefaultDate = v
	}
}

func (c *ResultsConfig) validate() error {
	minDate, err := time.Parse(calendarLayout, c.MinDate)
	if err != nil {
		return fmt.Errorf("invalid min_date: %w", err)
	}
	maxDate, err := time.Parse(calendarLayout, c.MaxDate)
	if err != nil {
		return fmt.Errorf("invalid max_date: %w", err)
	}
	defaultDate, err := time.Parse(calendarLayout, c.DefaultDate)
	if err != nil {
		return fmt.Errorf("invalid default_date: %w", err)
	}

	if maxDate.Before(minDate) {
		return fmt.Errorf("max_date precedes min_date")
	}
	if defaultDate.Before(minDate) || defaultDate.After(maxDate) {
		return fmt.Errorf("default_date outside min_date..max_date")
	}
	return nil
}
