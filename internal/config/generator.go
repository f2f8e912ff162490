package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvGeneratorBaseURL      = "ARGUS_GENERATOR_BASE_URL"
	EnvGeneratorToken        = "ARGUS_GENERATOR_TOKEN"
	EnvGeneratorModel        = "ARGUS_GENERATOR_MODEL"
	EnvGeneratorTemperature  = "ARGUS_GENERATOR_TEMPERATURE"
	EnvGeneratorMaxTokens    = "ARGUS_GENERATOR_MAX_TOKENS"
	EnvGeneratorTimeout      = "ARGUS_GENERATOR_TIMEOUT"
	EnvGeneratorMaxRetries   = "ARGUS_GENERATOR_MAX_RETRIES"
	EnvGeneratorRetryMinWait = "ARGUS_GENERATOR_RETRY_MIN_WAIT"
	EnvGeneratorRetryMaxWait = "ARGUS_GENERATOR_RETRY_MAX_WAIT"
)

// GeneratorConfig holds the chat-completion endpoint the explanation
// generator talks to, plus its sampling and resilience settings.
type GeneratorConfig struct {
	BaseURL      string  `toml:"base_url"`
	Token        string  `toml:"token"`
	Model        string  `toml:"model"`
	Temperature  float64 `toml:"temperature"`
	MaxTokens    int     `toml:"max_tokens"`
	Timeout      string  `toml:"timeout"`
	MaxRetries   *int    `toml:"max_retries"`
	RetryMinWait string  `toml:"retry_min_wait"`
	RetryMaxWait string  `toml:"retry_max_wait"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *GeneratorConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// RetryMinWaitDuration returns RetryMinWait as a time.Duration.
func (c *GeneratorConfig) RetryMinWaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryMinWait)
	return d
}

// RetryMaxWaitDuration returns RetryMaxWait as a time.Duration.
func (c *GeneratorConfig) RetryMaxWaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryMaxWait)
	return d
}

// Retries returns the configured retry count.
func (c *GeneratorConfig) Retries() int {
	if c.MaxRetries == nil {
		return 0
	}
	return *c.MaxRetries
}

// Finalize applies defaults, environment variable overrides, and
// validation.
func (c *GeneratorConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *GeneratorConfig) Merge(overlay *GeneratorConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != nil {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.RetryMinWait != "" {
		c.RetryMinWait = overlay.RetryMinWait
	}
	if overlay.RetryMaxWait != "" {
		c.RetryMaxWait = overlay.RetryMaxWait
	}
}

func (c *GeneratorConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434/v1/chat/completions"
	}
	if c.Model == "" {
		c.Model = "tinyllama"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 512
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
	if c.MaxRetries == nil {
		retries := 2
		c.MaxRetries = &retries
	}
	if c.RetryMinWait == "" {
		c.RetryMinWait = "500ms"
	}
	if c.RetryMaxWait == "" {
		c.RetryMaxWait = "10s"
	}
}

func (c *GeneratorConfig) loadEnv() {
	if v := os.Getenv(EnvGeneratorBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvGeneratorToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvGeneratorModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvGeneratorTemperature); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = t
		}
	}
	if v := os.Getenv(EnvGeneratorMaxTokens); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv(EnvGeneratorTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvGeneratorMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.MaxRetries = &n
		}
	}
	if v := os.Getenv(EnvGeneratorRetryMinWait); v != "" {
		c.RetryMinWait = v
	}
	if v := os.Getenv(EnvGeneratorRetryMaxWait); v != "" {
		c.RetryMaxWait = v
	}
}

func (c *GeneratorConfig) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2]: %v", c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive: %d", c.MaxTokens)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.Retries() < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if _, err := time.ParseDuration(c.RetryMinWait); err != nil {
		return fmt.Errorf("invalid retry_min_wait: %w", err)
	}
	if _, err := time.ParseDuration(c.RetryMaxWait); err != nil {
		return fmt.Errorf("invalid retry_max_wait: %w", err)
	}
	return nil
}
