package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/external/content"
)

type fakeContentClient struct {
	version  string
	snapshot *content.CatalogSnapshot
	fetchErr error
	fetches  int
}

func (f *fakeContentClient) FetchCatalog(context.Context) (*content.CatalogSnapshot, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshot, nil
}

func (f *fakeContentClient) Version(context.Context) (string, error) {
	return f.version, nil
}

type fakeWriter struct {
	version string
	sites   []site.Site
	upserts int
}

func (f *fakeWriter) UpsertSites(_ context.Context, sites []site.Site, version string, _ time.Time) error {
	f.sites = sites
	f.version = version
	f.upserts++
	return nil
}

func (f *fakeWriter) Version(context.Context) (string, error) {
	return f.version, nil
}

type fakeCache struct{ invalidations int }

func (f *fakeCache) Invalidate() { f.invalidations++ }

type capturingPublisher struct{ events []shared.Event }

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func testSnapshot() *content.CatalogSnapshot {
	return &content.CatalogSnapshot{
		Version:     "2026.08.2",
		LastUpdated: time.Now(),
		Sites: []site.Site{
			{
				ID:         "great_pyramid",
				Name:       "Great Pyramid of Giza",
				Era:        site.EraOldKingdom,
				City:       site.CityGiza,
				Coordinate: shared.Coordinate{Latitude: 29.9792, Longitude: 31.1342},
			},
		},
	}
}

func TestSyncCatalogJob_SyncsNewVersion(t *testing.T) {
	client := &fakeContentClient{version: "2026.08.2", snapshot: testSnapshot()}
	writer := &fakeWriter{version: "2026.08.1"}
	cache := &fakeCache{}
	publisher := &capturingPublisher{}

	job := NewSyncCatalogJob(client, writer, cache, publisher, nil, SyncCatalogConfig{})
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1, writer.upserts)
	assert.Equal(t, "2026.08.2", writer.version)
	assert.Equal(t, 1, cache.invalidations)

	require.Len(t, publisher.events, 1)
	synced, ok := publisher.events[0].(shared.CatalogSyncedEvent)
	require.True(t, ok)
	assert.Equal(t, "2026.08.2", synced.Version)
	assert.Equal(t, 1, synced.SiteCount)

	stats := job.LastSyncStats()
	require.NotNil(t, stats)
	assert.False(t, stats.Skipped)
	assert.Equal(t, 1, stats.SiteCount)
}

func TestSyncCatalogJob_SkipsMatchingVersion(t *testing.T) {
	client := &fakeContentClient{version: "2026.08.1", snapshot: testSnapshot()}
	writer := &fakeWriter{version: "2026.08.1"}
	publisher := &capturingPublisher{}

	job := NewSyncCatalogJob(client, writer, nil, publisher, nil, SyncCatalogConfig{})
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 0, client.fetches)
	assert.Equal(t, 0, writer.upserts)
	assert.Empty(t, publisher.events)

	stats := job.LastSyncStats()
	require.NotNil(t, stats)
	assert.True(t, stats.Skipped)
}

func TestSyncCatalogJob_FetchFailureKeepsMirror(t *testing.T) {
	client := &fakeContentClient{version: "2026.08.2", fetchErr: errors.New("boom")}
	writer := &fakeWriter{version: "2026.08.1"}

	job := NewSyncCatalogJob(client, writer, nil, nil, nil, SyncCatalogConfig{})
	err := job.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, writer.upserts)
	assert.Equal(t, "2026.08.1", writer.version)
}
