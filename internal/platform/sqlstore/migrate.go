package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"

	"github.com/phrazzld/task-api/internal/store"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// Migration commands accepted by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
	MigrateReset   = "reset"
	MigrateRedo    = "redo"
)

// Migrate runs a goose command against db using the embedded migrations for
// dialect. goose keeps its configuration in package state, so concurrent
// calls are not supported.
func Migrate(ctx context.Context, db *sql.DB, dialect store.Dialect, logger *slog.Logger, command string, args ...string) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "migrations"), slog.String("command", command))

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&gooseLogger{log: log})
	if err := goose.SetDialect(dialect.Name()); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	log.Info("running migrations", slog.String("dialect", dialect.Name()))
	if err := goose.RunContext(ctx, command, db, migrationsDir(dialect), args...); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	log.Info("migrations finished")
	return nil
}

func migrationsDir(dialect store.Dialect) string {
	if dialect == store.SQLite {
		return path.Join("migrations", "sqlite")
	}
	return path.Join("migrations", "postgres")
}

// gooseLogger forwards goose output to slog. Fatalf does not exit; the
// error is returned to the caller instead.
type gooseLogger struct {
	log *slog.Logger
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
}
