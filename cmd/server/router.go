package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/promptq/internal/api"
	apiMiddleware "github.com/phrazzld/promptq/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// API handlers
	authHandler := api.NewAuthHandler(app.config.Auth.APIKeyHash, app.jwtService, app.keyVerifier)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	taskHandler := api.NewTaskHandler(app.taskStore, app.logger)
	queueHandler := api.NewQueueHandler(app.scheduler, app.scanner, app.taskStore, app.logger)
	mediaHandler := api.NewMediaHandler(app.mediaCache, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoint (public)
		r.Post("/auth/token", authHandler.Token)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Task endpoints
			r.Post("/tasks", taskHandler.Create)
			r.Get("/tasks", taskHandler.List)
			r.Get("/tasks/{id}", taskHandler.Get)

			// Queue endpoints
			r.Get("/queue", queueHandler.State)
			r.Post("/queue/run", queueHandler.Run)
			r.Post("/queue/run-single", queueHandler.RunSingle)
			r.Post("/queue/stop", queueHandler.Stop)
			r.Get("/queue/policy", queueHandler.GetPolicy)
			r.Put("/queue/policy", queueHandler.UpdatePolicy)
			r.Post("/queue/scan", queueHandler.Scan)

			// Media endpoints
			r.Post("/reference-images", mediaHandler.Upload)
			r.Get("/media/{handle}", mediaHandler.Get)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
