// Package main is the entry point for the rewards engine background worker.
//
// The worker owns the catalog sync: it mirrors the published site catalog
// from the content pipeline into PostgreSQL on a fixed interval, so API
// replicas can serve reads without ever talking to the pipeline themselves.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Naareman/UnlockEgypt-sub000/config"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/external/content"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/messaging"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/persistence/postgres"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/scheduler"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/scheduler/jobs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for the worker")
	}
	if cfg.Content.BaseURL == "" {
		return fmt.Errorf("CONTENT_BASE_URL is required for the worker")
	}

	log := setupLogger(cfg)
	log.Info("starting rewards engine worker",
		"env", cfg.App.Environment,
		"sync_interval", cfg.Content.SyncInterval.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// CONTENT CLIENT & SYNC JOB
	// ─────────────────────────────────────────────────────────────────────────
	clientCfg := content.DefaultClientConfig(cfg.Content.BaseURL)
	clientCfg.APIKey = cfg.Content.APIKey
	clientCfg.Timeout = cfg.Content.RequestTimeout
	clientCfg.Logger = log
	client := content.NewClient(clientCfg)

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer func() { _ = bus.Close() }()

	repo := postgres.NewCatalogRepo(dbConn)
	syncJob := jobs.NewSyncCatalogJob(client, repo, nil, bus, log, jobs.SyncCatalogConfig{
		Timeout: cfg.Content.SyncTimeout,
	})

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{Logger: log})
	if err := sched.Register(syncJob, scheduler.NewIntervalSchedule(cfg.Content.SyncInterval)); err != nil {
		return fmt.Errorf("failed to register sync job: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() { _ = sched.Stop() }()

	// First sync immediately; the interval only paces the follow-ups.
	if result, err := sched.RunNow(ctx, syncJob.Name()); err != nil {
		log.Warn("initial catalog sync failed", "error", err)
	} else {
		log.Info("initial catalog sync completed", "duration", result.Duration.String())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("shutdown completed")
	return nil
}

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Observability.LogFormat, "text") || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
