// Package main implements the promptq page agent: the process that sits
// next to the browser, drives the tool page over DevTools, and serves the
// execution endpoint the server's http channel posts to.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/promptq/internal/config"
	"github.com/phrazzld/promptq/internal/engine/adapter"
	"github.com/phrazzld/promptq/internal/engine/channel"
	"github.com/phrazzld/promptq/internal/engine/executor"
	"github.com/phrazzld/promptq/internal/platform/cdp"
	"github.com/phrazzld/promptq/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	appLogger.Info("agent configuration loaded",
		"agent_port", cfg.Engine.AgentPort,
		"cdp_url", cfg.Engine.CDPURL,
		"strict_completion", cfg.Engine.StrictCompletion)

	ctx := context.Background()

	client, err := cdp.Dial(ctx, cfg.Engine.CDPURL, appLogger)
	if err != nil {
		appLogger.Error("failed to attach to browser", "cdp_url", cfg.Engine.CDPURL, "error", err)
		os.Exit(1)
	}
	defer func() { _ = client.Close() }()

	page := cdp.NewPage(client)

	adapterCfg := adapter.DefaultConfig()
	adapterCfg.PollInterval = time.Duration(cfg.Engine.PollIntervalMS) * time.Millisecond
	adapterCfg.CompletionTimeout = time.Duration(cfg.Engine.CompletionTimeoutMS) * time.Millisecond
	adapterCfg.StrictCompletion = cfg.Engine.StrictCompletion

	registry := adapter.NewRegistry(page, adapterCfg)
	exec := executor.New(registry, time.Duration(cfg.Engine.SubmitSettleMS)*time.Millisecond, appLogger)
	local := channel.NewLocal(exec, page, appLogger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Engine.AgentPort),
		Handler: channel.NewHandler(local, appLogger),
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("starting agent", "port", cfg.Engine.AgentPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-shutdownCh:
		appLogger.Info("shutting down agent...")
	case err := <-errCh:
		appLogger.Error("agent failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("agent shutdown failed", "error", err)
		os.Exit(1)
	}
}
