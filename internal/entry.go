// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
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

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/audit"
	"github.com/starford/raido/internal/browse"
	"github.com/starford/raido/internal/pathguard"
	"github.com/starford/raido/internal/ratelimit"
	"github.com/starford/raido/internal/session"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/themes"
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
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	// Resolve the browse boundary. An empty root means the current user's
	// home directory.
	root := cfg.Browse.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		root = home
	}

	startDir := cfg.Browse.StartDir
	if !filepath.IsAbs(startDir) {
		startDir = filepath.Join(root, startDir)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("browse_root", root),
		slog.String("start_dir", startDir),
		slog.String("themes_dir", cfg.Themes.Dir),
		slog.String("audit_path", cfg.Audit.Path),
		slog.String("env", cfg.App.Env),
		slog.String("log_level", cfg.App.LogLevel.String()))

	guard, err := pathguard.New(root)
	if err != nil {
		return fmt.Errorf("init path guard: %w", err)
	}
	svc := browse.NewService(guard)

	// Ensure the theme directory exists before watching it.
	if err := os.MkdirAll(cfg.Themes.Dir, 0o755); err != nil {
		return fmt.Errorf("create themes dir: %w", err)
	}
	store := themes.NewStore(cfg.Themes.Dir)

	// Audit database.
	rec, err := audit.Open(cfg.Audit.Path, logger)
	if err != nil {
		return fmt.Errorf("init audit log: %w", err)
	}
	defer rec.Close()

	// Session secret. Production requires a configured secret; otherwise an
	// ephemeral one is generated, which invalidates sessions on restart.
	secret := []byte(cfg.Security.Secret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		logger.Warn("No session secret configured, generated an ephemeral one; sessions will not survive restart")
	}
	sessions := session.NewManager(secret)

	limiter := ratelimit.New(cfg.Security.RateLimit, time.Duration(cfg.Security.RateWindowSeconds)*time.Second)

	// SSE broker for theme change events.
	broker := sse.NewBroker()

	apiRouter := api.NewRouter(svc, store, sessions, limiter, rec, startDir, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.SecurityHeaders)

	// Health check endpoints.
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

	// Shell and theme CSS at the root, JSON API under /api.
	r.Mount("/", api.NewRootRouter(store))
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the theme directory and push change events to SSE clients.
	g.Go(func() error {
		err := themes.Watch(gCtx, store, logger, func(kind, id string) {
			broker.PublishThemeEvent(kind, id)
		})
		if err != nil {
			logger.Warn("theme watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
