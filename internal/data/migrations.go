package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/MrCreosote/user-and-job-state/internal/migrate"
)

// RunMigrations creates or upgrades the jobs schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return migrate.RunWithOptions(ctx, db, migrate.Options{Logger: logger})
}
