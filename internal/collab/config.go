package collab

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds connection parameters for one collaborator endpoint.
type Config struct {
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key"`
	Timeout           string `toml:"timeout"`
	RequestsPerSecond int    `toml:"requests_per_second"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL           string
	APIKey            string
	Timeout           string
	RequestsPerSecond string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(defaultTimeout string, env *Env) error {
	c.loadDefaults(defaultTimeout)
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.RequestsPerSecond != 0 {
		c.RequestsPerSecond = overlay.RequestsPerSecond
	}
}

func (c *Config) loadDefaults(defaultTimeout string) {
	if c.Timeout == "" {
		c.Timeout = defaultTimeout
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 5
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.RequestsPerSecond != "" {
		if v := os.Getenv(env.RequestsPerSecond); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.RequestsPerSecond = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.RequestsPerSecond < 1 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	return nil
}
