// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, archive) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/avid-platform/avid/internal/config"
	"github.com/avid-platform/avid/pkg/archive"
	"github.com/avid-platform/avid/pkg/database"
	"github.com/avid-platform/avid/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, and source archiving.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Archive   archive.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	arch, err := archive.New(&cfg.Archive, logger)
	if err != nil {
		return nil, fmt.Errorf("archive init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Archive:   arch,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and archive hooks are registered for startup and shutdown coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Archive.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("archive start failed: %w", err)
	}
	return nil
}
