package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/promptq/internal/api"
	"github.com/phrazzld/promptq/internal/config"
	"github.com/phrazzld/promptq/internal/engine/capture"
	"github.com/phrazzld/promptq/internal/engine/channel"
	"github.com/phrazzld/promptq/internal/engine/scheduler"
	"github.com/phrazzld/promptq/internal/events"
	"github.com/phrazzld/promptq/internal/mediacache"
	"github.com/phrazzld/promptq/internal/platform/gemini"
	"github.com/phrazzld/promptq/internal/platform/postgres"
	"github.com/phrazzld/promptq/internal/service/auth"
	"github.com/phrazzld/promptq/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore store.TaskStore

	jwtService  auth.JWTService
	keyVerifier auth.KeyVerifier

	channel channel.Channel
	scanner api.Scanner

	mediaCache *mediacache.Cache

	eventEmitter *events.InMemoryEmitter
	mediaEvents  *events.AsyncHandler

	capture   *capture.Service
	scheduler *scheduler.Scheduler
}

// newApplication creates a new application instance with all dependencies
// initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	// JWT service and API key verification
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.keyVerifier = auth.NewBcryptVerifier()
	logger.Info("authentication initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Task store: Postgres when a database URL is configured, otherwise an
	// in-memory store suitable for single-session use.
	if cfg.Database.URL != "" {
		app.db, err = setupAppDatabase(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up database: %w", err)
		}
		app.taskStore = postgres.NewPostgresTaskStore(app.db)
		logger.Info("task store initialized", "backend", "postgres")
	} else {
		app.taskStore = store.NewMemoryTaskStore()
		logger.Info("task store initialized", "backend", "memory")
	}

	// Media cache
	storage, err := mediacache.NewStorageFromConfig(ctx, cfg.MediaCache, mediaBaseURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media cache storage: %w", err)
	}
	app.mediaCache = mediacache.NewCache(
		storage,
		time.Duration(cfg.MediaCache.FetchTimeoutMS)*time.Millisecond,
		logger.With("component", "media_cache"),
	)

	// Execution channel
	ch, err := setupChannel(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize execution channel: %w", err)
	}
	app.channel = ch
	// Only some channels can enumerate results already on the page.
	if sc, ok := ch.(api.Scanner); ok {
		app.scanner = sc
	}

	// Event system: result capture publishes media cache requests that the
	// media handler consumes asynchronously. The async wrapper keeps slow
	// or failing remote fetches out of the scheduler loop.
	app.eventEmitter = events.NewInMemoryEmitter(logger)
	app.mediaEvents = events.NewAsyncHandler(capture.NewMediaHandler(
		app.mediaCache,
		app.taskStore,
		logger.With("component", "media_cache_handler"),
	), logger)
	app.eventEmitter.RegisterHandler(app.mediaEvents)

	// Result capture and queue scheduler
	app.capture = capture.NewService(app.taskStore, app.eventEmitter, logger)
	app.scheduler = scheduler.New(
		app.channel,
		app.taskStore,
		app.capture,
		app.mediaCache,
		app.eventEmitter,
		scheduler.Config{
			DelayMin:           time.Duration(cfg.Engine.DelayMinMS) * time.Millisecond,
			DelayMax:           time.Duration(cfg.Engine.DelayMaxMS) * time.Millisecond,
			RedirectSettle:     time.Duration(cfg.Engine.RedirectSettleMS) * time.Millisecond,
			MaxRedirectRetries: cfg.Engine.MaxRedirectRetries,
		},
		logger,
	)

	logger.Info("application initialized successfully")
	return app, nil
}

// setupChannel builds the configured channel to the execution context.
func setupChannel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (channel.Channel, error) {
	switch cfg.Engine.Channel {
	case "http":
		return channel.NewClient(cfg.Engine.ExecutorURL, logger.With("component", "channel")), nil
	case "gemini-api":
		return gemini.NewAPIChannel(ctx, logger.With("component", "channel"), cfg.Gemini)
	default:
		return nil, fmt.Errorf("unknown channel type %q", cfg.Engine.Channel)
	}
}

// mediaBaseURL is the public URL prefix cached media is served from.
func mediaBaseURL(cfg *config.Config) string {
	return fmt.Sprintf("http://localhost:%d/api/media", cfg.Server.Port)
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Interrupt any in-flight run so its outcome is recorded before exit.
	if app.scheduler != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.scheduler.Stop(shutdownCtx); err != nil {
			app.logger.Error("error stopping scheduler", "error", err)
		}
		select {
		case <-app.scheduler.Done():
		case <-shutdownCtx.Done():
			app.logger.Warn("scheduler did not drain before shutdown deadline")
		}
	}

	// Let in-flight media caching finish before the store goes away.
	if app.mediaEvents != nil {
		app.mediaEvents.Wait()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
