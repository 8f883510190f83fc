package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/phrazzld/promptq/internal/config"
)

// migrationsDir is the path to the SQL migration files, relative to the
// repository root.
const migrationsDir = "internal/platform/postgres/migrations"

// slogGooseLogger adapts goose's logger interface to slog.
type slogGooseLogger struct{}

// Printf implements the goose.Logger Printf method by forwarding to slog.Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding to
// slog.Error. Deliberately does not call os.Exit so main handles the exit.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// runMigrations executes the given goose command against the configured
// database.
func runMigrations(cfg *config.Config, command string) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url must be set to run migrations")
	}

	goose.SetLogger(&slogGooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			slog.Error("failed to close database connection", "error", cerr)
		}
	}()

	dir, err := resolveMigrationsDir()
	if err != nil {
		return err
	}

	switch command {
	case "up":
		err = goose.Up(db, dir)
	case "down":
		err = goose.Down(db, dir)
	case "reset":
		err = goose.Reset(db, dir)
	case "status":
		err = goose.Status(db, dir)
	case "version":
		err = goose.Version(db, dir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}

// resolveMigrationsDir locates the migrations directory from the working
// directory, walking up so the binary works from subdirectories too.
func resolveMigrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, migrationsDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("migrations directory %q not found", migrationsDir)
		}
		dir = parent
	}
}
