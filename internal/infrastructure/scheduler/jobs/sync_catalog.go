// Package jobs contains the scheduled jobs of the rewards engine. The only
// production job is the catalog sync, which keeps the local site mirror in
// step with the content pipeline.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/external/content"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC CATALOG JOB
// ══════════════════════════════════════════════════════════════════════════════

// ContentClient fetches the published catalog from the content pipeline.
type ContentClient interface {
	// FetchCatalog downloads and validates the published catalog.
	FetchCatalog(ctx context.Context) (*content.CatalogSnapshot, error)

	// Version fetches only the published catalog version.
	Version(ctx context.Context) (string, error)
}

// CatalogWriter persists a synced catalog snapshot.
type CatalogWriter interface {
	// UpsertSites replaces the mirrored catalog transactionally.
	UpsertSites(ctx context.Context, sites []site.Site, version string, lastUpdated time.Time) error

	// Version returns the currently mirrored catalog version.
	Version(ctx context.Context) (string, error)
}

// CacheInvalidator drops any cached catalog copy after a successful sync.
type CacheInvalidator interface {
	Invalidate()
}

// SyncStats contains statistics from a sync run.
type SyncStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Version     string
	SiteCount   int
	Skipped     bool
}

// SyncCatalogJob mirrors the published site catalog into local storage. The
// job is version-gated: when the pipeline's version matches the mirror, the
// full download is skipped.
type SyncCatalogJob struct {
	client    ContentClient
	writer    CatalogWriter
	cache     CacheInvalidator
	publisher shared.EventPublisher
	logger    *slog.Logger
	timeout   time.Duration

	lastStats atomic.Value // *SyncStats
}

// SyncCatalogConfig contains configuration for the sync job.
type SyncCatalogConfig struct {
	// Timeout bounds one sync run. Default 2 minutes.
	Timeout time.Duration
}

// NewSyncCatalogJob creates a new catalog sync job. cache may be nil when no
// caching layer is wired.
func NewSyncCatalogJob(
	client ContentClient,
	writer CatalogWriter,
	cache CacheInvalidator,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config SyncCatalogConfig,
) *SyncCatalogJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &SyncCatalogJob{
		client:    client,
		writer:    writer,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		timeout:   config.Timeout,
	}
}

// Name returns the job name.
func (j *SyncCatalogJob) Name() string {
	return "sync_catalog"
}

// Description returns a human-readable description.
func (j *SyncCatalogJob) Description() string {
	return "Mirrors the published site catalog from the content pipeline"
}

// Run executes the sync job.
func (j *SyncCatalogJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	startedAt := time.Now()
	stats := &SyncStats{StartedAt: startedAt}
	defer func() {
		stats.CompletedAt = time.Now()
		stats.Duration = stats.CompletedAt.Sub(startedAt)
		j.lastStats.Store(stats)
	}()

	published, err := j.client.Version(ctx)
	if err != nil {
		return fmt.Errorf("check published version: %w", err)
	}

	mirrored, err := j.writer.Version(ctx)
	if err != nil {
		j.logger.Warn("could not read mirrored version, forcing full sync", "error", err)
		mirrored = ""
	}

	if published != "" && published == mirrored {
		stats.Version = mirrored
		stats.Skipped = true
		j.logger.Debug("catalog up to date", "version", mirrored)
		return nil
	}

	snap, err := j.client.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	if err := j.writer.UpsertSites(ctx, snap.Sites, snap.Version, snap.LastUpdated); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	if j.cache != nil {
		j.cache.Invalidate()
	}

	stats.Version = snap.Version
	stats.SiteCount = len(snap.Sites)

	event := shared.CatalogSyncedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventCatalogSynced, "catalog"),
		SiteCount: len(snap.Sites),
		Version:   snap.Version,
	}
	if err := j.publisher.Publish(event); err != nil {
		j.logger.Warn("failed to publish catalog synced event", "error", err)
	}

	j.logger.Info("catalog synced",
		"version", snap.Version,
		"sites", len(snap.Sites),
		"previous_version", mirrored,
	)
	return nil
}

// LastSyncStats returns statistics from the last sync run, nil before the
// first run.
func (j *SyncCatalogJob) LastSyncStats() *SyncStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*SyncStats)
}
