// Package config loads the service configuration from TOML with optional
// per-environment overlays and AVID_* environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/avid-platform/avid/internal/collab"
	"github.com/avid-platform/avid/pkg/archive"
	"github.com/avid-platform/avid/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAvidEnv             = "AVID_ENV"
	EnvAvidShutdownTimeout = "AVID_SHUTDOWN_TIMEOUT"
	EnvAvidVersion         = "AVID_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "AVID_DB_HOST",
	Port:            "AVID_DB_PORT",
	Name:            "AVID_DB_NAME",
	User:            "AVID_DB_USER",
	Password:        "AVID_DB_PASSWORD",
	SSLMode:         "AVID_DB_SSL_MODE",
	MaxOpenConns:    "AVID_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "AVID_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "AVID_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "AVID_DB_CONN_TIMEOUT",
}

var archiveEnv = &archive.Env{
	ContainerName:    "AVID_ARCHIVE_CONTAINER_NAME",
	ConnectionString: "AVID_ARCHIVE_CONNECTION_STRING",
}

var noveltyEnv = &collab.Env{
	BaseURL:           "AVID_NOVELTY_BASE_URL",
	APIKey:            "AVID_NOVELTY_API_KEY",
	Timeout:           "AVID_NOVELTY_TIMEOUT",
	RequestsPerSecond: "AVID_NOVELTY_REQUESTS_PER_SECOND",
}

var formalizerEnv = &collab.Env{
	BaseURL:           "AVID_FORMALIZER_BASE_URL",
	APIKey:            "AVID_FORMALIZER_API_KEY",
	Timeout:           "AVID_FORMALIZER_TIMEOUT",
	RequestsPerSecond: "AVID_FORMALIZER_REQUESTS_PER_SECOND",
}

// Config is the root configuration for the AVID service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Archive         archive.Config  `toml:"archive"`
	API             APIConfig       `toml:"api"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	Novelty         collab.Config   `toml:"novelty"`
	Formalizer      collab.Config   `toml:"formalizer"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the AVID_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAvidEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Archive.Merge(&overlay.Archive)
	c.API.Merge(&overlay.API)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Novelty.Merge(&overlay.Novelty)
	c.Formalizer.Merge(&overlay.Formalizer)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Archive.Finalize(archiveEnv); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	// Novelty answers in seconds; formalization can run for minutes.
	if err := c.Novelty.Finalize("30s", noveltyEnv); err != nil {
		return fmt.Errorf("novelty: %w", err)
	}
	if err := c.Formalizer.Finalize("5m", formalizerEnv); err != nil {
		return fmt.Errorf("formalizer: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAvidShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAvidVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAvidEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
