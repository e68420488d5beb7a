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

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/ringside/internal/adapter/fsm"
	"github.com/neomorfeo/ringside/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/ringside/internal/adapter/river"
	"github.com/neomorfeo/ringside/internal/adapter/sqlite"
	"github.com/neomorfeo/ringside/internal/app"
	"github.com/neomorfeo/ringside/internal/config"

	handler "github.com/neomorfeo/ringside/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("ringside exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	providers, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	jobs, err := riveradapter.Setup(ctx, db, cfg.WorkerConcurrency, logger)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	publisher, err := otel.NewTracingPublisher(riveradapter.NewPublisher(jobs))
	if err != nil {
		return fmt.Errorf("publisher: %w", err)
	}

	// --- Application ---
	engine := app.NewEngine(app.Ports{
		Entities:    store,
		Periods:     otel.NewTracingPeriodStore(store),
		Memberships: store,
		UoW:         store,
		Validator:   fsm.New(),
		Publisher:   publisher,
	}, app.WithLogger(logger))

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(otelchi.Middleware(cfg.OTel.ServiceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	api := humachi.New(router, huma.DefaultConfig("ringside", cfg.OTel.ServiceVersion))
	handler.Register(api, engine)

	// --- Workers ---
	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("ringside listening", "addr", srv.Addr, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			stopWorkers(jobs, cfg.ShutdownTimeout, logger)
			return fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	stopWorkers(jobs, cfg.ShutdownTimeout, logger)

	logger.Info("stopped")
	return nil
}

// stopWorkers lets in-flight change jobs finish before the database closes.
func stopWorkers(jobs *riveradapter.Client, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := jobs.Stop(ctx); err != nil {
		logger.Error("river shutdown", "error", err)
	}
}
