// Package main implements the entry point for the task API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/task-api/internal/config"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/platform/sqlstore"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command (up, down, status, version, reset, redo) and exit")
	flag.Parse()

	if err := run(*migrateCmd, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "task-api: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, connects to the database and either executes a
// migration command or serves HTTP until SIGINT or SIGTERM.
func run(migrateCmd string, migrateArgs []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := sqlstore.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()
	log.Info("database connection established", slog.String("dialect", dialect.Name()))

	if migrateCmd != "" {
		return sqlstore.Migrate(ctx, db, dialect, log, migrateCmd, migrateArgs...)
	}
	if cfg.Database.AutoMigrate {
		if err := sqlstore.Migrate(ctx, db, dialect, log, sqlstore.MigrateUp); err != nil {
			return err
		}
	}

	app, err := newApplication(cfg, log, db, dialect)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
