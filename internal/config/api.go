package config

import (
	"fmt"
	"os"

	"github.com/avid-platform/avid/pkg/formatting"
	"github.com/avid-platform/avid/pkg/middleware"
	"github.com/avid-platform/avid/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "AVID_CORS_ENABLED",
	Origins:          "AVID_CORS_ORIGINS",
	AllowedMethods:   "AVID_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "AVID_CORS_ALLOWED_HEADERS",
	AllowCredentials: "AVID_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "AVID_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "AVID_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "AVID_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, pagination, and submission size settings.
type APIConfig struct {
	BasePath          string                `toml:"base_path"`
	MaxSubmissionSize string                `toml:"max_submission_size"`
	CORS              middleware.CORSConfig `toml:"cors"`
	Pagination        pagination.Config     `toml:"pagination"`
}

// MaxSubmissionSizeBytes returns the submission body limit in bytes.
func (c *APIConfig) MaxSubmissionSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxSubmissionSize)
	if err != nil {
		return 10 * 1024 * 1024 // 10MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxSubmissionSize != "" {
		c.MaxSubmissionSize = overlay.MaxSubmissionSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxSubmissionSize == "" {
		c.MaxSubmissionSize = "10MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("AVID_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("AVID_API_MAX_SUBMISSION_SIZE"); v != "" {
		c.MaxSubmissionSize = v
	}
}
