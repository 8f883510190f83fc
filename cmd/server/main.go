// Package main implements the entry point for the promptq server, which
// queues prompt tasks and drives their execution against generative AI
// web tools through a connected execution context.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/phrazzld/promptq/internal/config"
	"github.com/phrazzld/promptq/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a database migration command (up, down, status, version, reset) and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up structured logging using the configured log level
	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"channel", cfg.Engine.Channel,
		"media_cache_driver", cfg.MediaCache.Driver)

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd); err != nil {
			appLogger.Error("migration failed", "command", *migrateCmd, "error", err)
			os.Exit(1)
		}
		appLogger.Info("migration completed", "command", *migrateCmd)
		return
	}

	ctx := context.Background()

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		appLogger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
