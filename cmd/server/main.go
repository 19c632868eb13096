// Package main is the entry point for the Unlock Egypt rewards API server.
//
// The server hosts the full reward path: visit verification, scholar badges,
// quizzes, discoveries, achievements, and the notification feed. Storage and
// the content pipeline are optional; without them the engine runs on
// in-memory state and the built-in demo catalog.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/Naareman/UnlockEgypt-sub000/config"
	"github.com/Naareman/UnlockEgypt-sub000/internal/application/command"
	"github.com/Naareman/UnlockEgypt-sub000/internal/application/query"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	domainlocation "github.com/Naareman/UnlockEgypt-sub000/internal/domain/location"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/notification"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/external/content"
	infralocation "github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/location"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/messaging"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/persistence/memory"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/persistence/postgres"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/persistence/redis"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/scheduler"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/scheduler/jobs"
	httpiface "github.com/Naareman/UnlockEgypt-sub000/internal/interface/http"
	"github.com/Naareman/UnlockEgypt-sub000/internal/interface/http/handlers"
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

	log := setupLogger(cfg)
	log.Info("starting Unlock Egypt rewards engine",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// PROGRESS STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	var kv progress.KeyValue = memory.NewKV()
	if !cfg.Redis.Disabled && cfg.Redis.URL != "" {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		if host, port, ok := splitHostPort(cfg.Redis.URL); ok {
			redisCfg.Host = host
			redisCfg.Port = port
		}
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisKV, err := redis.NewKV(redisCfg)
		if err != nil {
			log.Warn("redis unavailable, falling back to in-memory storage", "error", err)
		} else {
			defer redisKV.Close()
			kv = redisKV
			health.AddCheck("redis", redisKV.Ping)
			log.Info("redis connection established", "addr", redisCfg.Addr())
		}
	}

	store, err := memory.NewStore(ctx, kv, log)
	if err != nil {
		return fmt.Errorf("failed to load progress state: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// SITE CATALOG
	// ─────────────────────────────────────────────────────────────────────────
	var catalog site.Catalog
	var catalogWriter jobs.CatalogWriter
	var cachedCatalog *site.CachedCatalog

	if cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbConn.Close()

		if err := dbConn.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		health.AddCheck("database", dbConn.Ping)
		log.Info("database schema is up to date")

		repo := postgres.NewCatalogRepo(dbConn)
		catalogWriter = repo
		cachedCatalog = site.NewCachedCatalog(repo, cfg.Content.CacheTTL)
		catalog = cachedCatalog
	} else {
		log.Warn("no DATABASE_URL configured, serving the built-in demo catalog")
		catalog = site.NewStaticCatalog(demoSites())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// ACHIEVEMENTS
	// ─────────────────────────────────────────────────────────────────────────
	achievementCatalog := achievement.DefaultCatalog()
	if cfg.App.AchievementsFile != "" {
		achievementCatalog, err = achievement.LoadCatalogFile(cfg.App.AchievementsFile)
		if err != nil {
			return fmt.Errorf("failed to load achievements file: %w", err)
		}
		log.Info("achievement catalog loaded from file", "path", cfg.App.AchievementsFile)
	}
	evaluator := achievement.NewEvaluator(achievementCatalog)

	// ─────────────────────────────────────────────────────────────────────────
	// EVENT BUS & NOTIFICATION FEED
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer func() { _ = bus.Close() }()

	feed := notification.NewFeed()
	if err := bus.Subscribe(shared.EventAchievementUnlocked, notification.UnlockSubscriber(feed)); err != nil {
		return fmt.Errorf("failed to subscribe notification feed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// POSITIONING
	// ─────────────────────────────────────────────────────────────────────────
	// In production the mobile client acquires the fix and sends it with
	// the verify request; the server-side port stays nil. The simulator is
	// for demos and local testing against the live API.
	var locator domainlocation.Port
	if cfg.Location.Simulated {
		source := infralocation.NewSimulatedSource()
		locator = infralocation.NewProvider(source, log)
		log.Warn("positioning runs against the in-process simulator")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// CATALOG SYNC
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && cfg.Content.BaseURL != "" && catalogWriter != nil {
		clientCfg := content.DefaultClientConfig(cfg.Content.BaseURL)
		clientCfg.APIKey = cfg.Content.APIKey
		clientCfg.Timeout = cfg.Content.RequestTimeout
		clientCfg.Logger = log
		client := content.NewClient(clientCfg)

		health.AddCheck("content_api", func(ctx context.Context) error {
			if !client.IsHealthy(ctx) {
				return fmt.Errorf("content API health check failed")
			}
			return nil
		})

		syncJob := jobs.NewSyncCatalogJob(client, catalogWriter, cachedCatalog, bus, log, jobs.SyncCatalogConfig{
			Timeout: cfg.Content.SyncTimeout,
		})

		sched = scheduler.NewScheduler(scheduler.SchedulerConfig{Logger: log})
		if err := sched.Register(syncJob, scheduler.NewIntervalSchedule(cfg.Content.SyncInterval)); err != nil {
			return fmt.Errorf("failed to register sync job: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()

		// Prime the mirror on boot so a fresh deployment serves sites
		// without waiting a full interval.
		go func() {
			if _, err := sched.RunNow(ctx, syncJob.Name()); err != nil {
				log.Warn("initial catalog sync failed", "error", err)
			}
		}()
	} else if cfg.Content.BaseURL != "" && catalogWriter == nil {
		log.Warn("content sync disabled: no database to mirror the catalog into")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := httpiface.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:     1 << 20,
		EnableCORS:         cfg.HTTP.EnableCORS,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		AdminTokenHash:     cfg.HTTP.AdminTokenHash,
	}

	deps := httpiface.Dependencies{
		GetProgressHandler:       query.NewGetProgressHandler(store, catalog),
		GetAchievementsHandler:   query.NewGetAchievementsHandler(store, catalog, evaluator),
		VerifyVisitHandler:       command.NewVerifyVisitHandler(store, catalog, evaluator, locator, bus, cfg.Location.FixTimeout),
		SelfReportVisitHandler:   command.NewSelfReportVisitHandler(store, catalog, evaluator, bus),
		AwardScholarBadgeHandler: command.NewAwardScholarBadgeHandler(store, catalog, evaluator, bus),
		CompleteQuizHandler:      command.NewCompleteQuizHandler(store, catalog, evaluator, bus),
		DiscoverPlaceHandler:     command.NewDiscoverPlaceHandler(store, catalog, evaluator, bus),
		ToggleFavoriteHandler:    command.NewToggleFavoriteHandler(store, catalog, bus),
		ResetProgressHandler:     command.NewResetProgressHandler(store, feed, bus),
		Feed:                     feed,
		Logger:                   log,
		HealthChecker:            health,
		Stats:                    statsFunc(bus, sched, store),
	}

	server := httpiface.NewServer(serverConfig, deps)
	serverErr := server.StartAsync()

	log.Info("Unlock Egypt rewards engine is running", "address", serverConfig.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}

	log.Info("shutdown completed")
	return nil
}

// statsFunc builds the stats callback for the stats endpoint.
func statsFunc(bus *messaging.InMemoryEventBus, sched *scheduler.Scheduler, store progress.Store) func() map[string]any {
	return func() map[string]any {
		stats := map[string]any{
			"event_bus":        bus.Metrics().Snapshot(),
			"store_generation": store.Generation(),
		}
		if sched != nil {
			stats["jobs"] = sched.ListJobs()
		}
		return stats
	}
}

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(cfg)}

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

func logLevel(cfg *config.Config) slog.Level {
	if cfg.App.Debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(cfg.Observability.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// splitHostPort parses a "host:port" or "redis://host:port" value.
func splitHostPort(raw string) (string, int, bool) {
	raw = strings.TrimPrefix(raw, "redis://")
	if idx := strings.Index(raw, "/"); idx != -1 {
		raw = raw[:idx]
	}
	host, portStr, found := strings.Cut(raw, ":")
	if !found || host == "" {
		return "", 0, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false
	}
	return host, port, true
}

// demoSites is the development catalog served when no database is wired. A
// small cross-section of the real content: enough to exercise every reward
// path by hand.
func demoSites() []site.Site {
	return []site.Site{
		{
			ID: "great_pyramid", Name: "Great Pyramid of Giza", ArabicName: "الهرم الأكبر",
			Era: site.EraOldKingdom, City: site.CityGiza,
			Coordinate: shared.Coordinate{Latitude: 29.9792, Longitude: 31.1342},
			SubLocations: []site.SubLocation{
				{ID: "kings_chamber", Name: "King's Chamber", StoryCardCount: 5},
				{ID: "grand_gallery", Name: "Grand Gallery", StoryCardCount: 4},
			},
		},
		{
			ID: "karnak_temple", Name: "Karnak Temple", ArabicName: "معبد الكرنك",
			Era: site.EraNewKingdom, City: site.CityLuxor,
			Coordinate: shared.Coordinate{Latitude: 25.7188, Longitude: 32.6573},
			SubLocations: []site.SubLocation{
				{ID: "hypostyle_hall", Name: "Great Hypostyle Hall", StoryCardCount: 6},
			},
		},
		{
			ID: "abu_simbel", Name: "Abu Simbel", ArabicName: "أبو سمبل",
			Era: site.EraNewKingdom, City: site.CityAswan,
			Coordinate: shared.Coordinate{Latitude: 22.3372, Longitude: 31.6258},
			SubLocations: []site.SubLocation{
				{ID: "great_temple", Name: "Great Temple of Ramesses II", StoryCardCount: 5},
				{ID: "temple_nefertari", Name: "Temple of Nefertari", StoryCardCount: 3},
			},
		},
		{
			ID: "citadel_saladin", Name: "Citadel of Saladin", ArabicName: "قلعة صلاح الدين",
			Era: site.EraIslamic, City: site.CityCairo,
			Coordinate: shared.Coordinate{Latitude: 30.0287, Longitude: 31.2599},
			SubLocations: []site.SubLocation{
				{ID: "muhammad_ali_mosque", Name: "Mosque of Muhammad Ali", StoryCardCount: 4},
			},
		},
	}
}
