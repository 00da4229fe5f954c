package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/avid-platform/avid/internal/workflow"
)

const (
	EnvPipelineWorkers              = "AVID_PIPELINE_WORKERS"
	EnvPipelineMaxAttempts          = "AVID_PIPELINE_MAX_ATTEMPTS"
	EnvPipelineRetryInitialInterval = "AVID_PIPELINE_RETRY_INITIAL_INTERVAL"
	EnvPipelineRetryMaxInterval     = "AVID_PIPELINE_RETRY_MAX_INTERVAL"
)

// PipelineConfig bounds pipeline concurrency and the formalization retry
// budget.
type PipelineConfig struct {
	Workers              int    `toml:"workers"`
	MaxAttempts          int    `toml:"max_attempts"`
	RetryInitialInterval string `toml:"retry_initial_interval"`
	RetryMaxInterval     string `toml:"retry_max_interval"`
}

// RetryPolicy converts the retry settings into a workflow policy.
func (c *PipelineConfig) RetryPolicy() workflow.RetryPolicy {
	initial, _ := time.ParseDuration(c.RetryInitialInterval)
	max, _ := time.ParseDuration(c.RetryMaxInterval)
	return workflow.RetryPolicy{
		MaxAttempts:     c.MaxAttempts,
		InitialInterval: initial,
		MaxInterval:     max,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.RetryInitialInterval != "" {
		c.RetryInitialInterval = overlay.RetryInitialInterval
	}
	if overlay.RetryMaxInterval != "" {
		c.RetryMaxInterval = overlay.RetryMaxInterval
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.RetryInitialInterval == "" {
		c.RetryInitialInterval = "2s"
	}
	if c.RetryMaxInterval == "" {
		c.RetryMaxInterval = "30s"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineWorkers); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.Workers = workers
		}
	}
	if v := os.Getenv(EnvPipelineMaxAttempts); v != "" {
		if attempts, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = attempts
		}
	}
	if v := os.Getenv(EnvPipelineRetryInitialInterval); v != "" {
		c.RetryInitialInterval = v
	}
	if v := os.Getenv(EnvPipelineRetryMaxInterval); v != "" {
		c.RetryMaxInterval = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive: %d", c.MaxAttempts)
	}
	if _, err := time.ParseDuration(c.RetryInitialInterval); err != nil {
		return fmt.Errorf("invalid retry_initial_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.RetryMaxInterval); err != nil {
		return fmt.Errorf("invalid retry_max_interval: %w", err)
	}
	return nil
}
