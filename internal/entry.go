// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/namohub/internal/api"
	"github.com/starford/namohub/internal/index"
	"github.com/starford/namohub/internal/itemservice"
	"github.com/starford/namohub/internal/sse"
	"github.com/starford/namohub/internal/storage"
)

// newApplication applies opts and fills in the logger and output defaults.
// logTo is where the default logger writes.
func newApplication(logTo io.Writer, opts ...Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(logTo, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	return app, nil
}

// components is the wired store, index and item service.
type components struct {
	store *storage.Blob
	db    *index.DB
	svc   *itemservice.Service
}

func (c *components) Close() error {
	return c.db.Close()
}

// open creates the store directory, opens the index, brings it up to date
// with the blob and builds the item service.
func (a *application) open(svcOpts ...itemservice.Option) (*components, error) {
	cfg := a.config

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	store, err := storage.NewBlob(cfg.Store.Path, cfg.Store.Key)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	classifier, err := cfg.Classifier.Classifier()
	if err != nil {
		return nil, err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if _, err := index.Sync(db, store, a.logger); err != nil {
		a.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	opts := append([]itemservice.Option{itemservice.WithClassifier(classifier)}, svcOpts...)
	return &components{
		store: store,
		db:    db,
		svc:   itemservice.New(store, db, opts...),
	}, nil
}

// Run starts the HTTP server, the blob watcher and the SSE broker, and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts...)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("store_key", cfg.Store.Key),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(cfg.Events.ViewsThrottle)
	defer broker.Close()

	c, err := app.open(itemservice.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer c.Close()

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if _, err := c.db.Count(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"index unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// External edits of the blob are re-indexed and pushed to SSE clients.
	g.Go(func() error {
		if err := index.Watch(gCtx, c.db, c.store, c.store.Path(), logger, broker.PublishItemEvent); err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
