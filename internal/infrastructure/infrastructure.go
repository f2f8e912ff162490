// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage) that domain systems require.
package infrastructure

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"argus/internal/config"
	"argus/pkg/database"
	"argus/pkg/lifecycle"
	"argus/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, and blob storage. Database and Storage are nil
// when their config sections are disabled; the result loader treats absent
// systems as skipped links in its fallback chain.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all enabled systems but does not start them; call Start
// separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	if cfg.Storage.Enabled {
		store, err := storage.New(&cfg.Storage, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	return infra, nil
}

// Start registers all enabled infrastructure systems with the lifecycle
// coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}

// Connection returns the database connection pool, or nil when the
// database is disabled.
func (i *Infrastructure) Connection() *sql.DB {
	if i.Database == nil {
		return nil
	}
	return i.Database.Connection()
}
