// Package main is the entry point for the manseryeok API server.
package main

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

	"github.com/zapponejosh/manseryeok-api/internal/api"
	"github.com/zapponejosh/manseryeok-api/internal/config"
	"github.com/zapponejosh/manseryeok-api/internal/crossref"
	"github.com/zapponejosh/manseryeok-api/internal/database"
	"github.com/zapponejosh/manseryeok-api/internal/logger"
	"github.com/zapponejosh/manseryeok-api/internal/metrics"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	log.Info("starting manseryeok API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.String("zi_convention", cfg.ZiConvention),
		slog.Bool("cross_reference", cfg.CrossReferenceEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("manseryeok API stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// =========================================================================
	// Storage
	// =========================================================================
	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database ready", slog.String("path", cfg.DatabasePath), slog.Int("migrations_applied", applied))

	// =========================================================================
	// Engine
	// =========================================================================
	m := metrics.New()

	var xref saju.CrossReferencer
	if lookup := crossref.NewFromConfig(cfg, db, m, log); lookup != nil {
		xref = lookup
	}

	engine, err := saju.NewEngine(cfg.EngineOptions(), xref, log)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	// =========================================================================
	// HTTP server
	// =========================================================================
	handlers := api.NewHandlers(engine, db, m, log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, cfg, m, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("manseryeok API ready", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
