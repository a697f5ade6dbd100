// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/laguz/internal/api"
	"github.com/starford/laguz/internal/mcpserver"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/prefs"
	"github.com/starford/laguz/internal/sse"
	"github.com/starford/laguz/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("store_path", cfg.Store.Path),
		slog.String("prefs_path", cfg.Prefs.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the snapshot store.
	var (
		store     storage.Provider
		jsonStore *storage.JSONStore
		err       error
	)
	switch cfg.Store.Backend {
	case StoreBackendSQLite:
		store, err = storage.NewSQLiteStore(cfg.Store.SQLitePath)
	default:
		jsonStore, err = storage.NewJSONStore(cfg.Store.Path)
		store = jsonStore
	}
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Build the note service and load the persisted state. Corrupt data is
	// surfaced as a warning and the session starts empty.
	svc := noteservice.NewService(store, prefs.NewStore(cfg.Prefs.Path))
	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	if app.mcpMode {
		// MCP stdio mode: no HTTP server, no watcher. The logger already
		// writes to stderr so stdout stays clean for the protocol.
		logger.Info("Starting MCP server on stdio")
		mcpErr := mcpserver.New(svc).ServeStdio()
		closeErr := svc.Close(context.Background())
		return errors.Join(mcpErr, closeErr)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	svc.SetNotify(func(entity, kind, id string) {
		broker.PublishChange(entity, kind, id)
	})

	// Build API router.
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// The watcher blocks on context cancellation; errgroup only cancels gCtx
	// when a goroutine errors, so a clean shutdown must cancel explicitly or
	// Wait never returns.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	// Watch the snapshot file for external writers (JSON backend only; the
	// process is the single expected writer, the watcher exists to warn).
	if jsonStore != nil {
		g.Go(func() error {
			if err := storage.Watch(gCtx, jsonStore, logger, func() {
				broker.Publish(sse.Event{Type: "storage.external", Data: map[string]string{
					"path": jsonStore.Path(),
				}})
			}); err != nil {
				logger.Warn("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		broker.Close()

		// Final save of snapshot and preferences.
		if err := svc.Close(shutdownCtx); err != nil {
			logger.Error("Session close error", slog.String("error", err.Error()))
		}

		// Release the remaining goroutines (watcher) so Wait can return.
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
