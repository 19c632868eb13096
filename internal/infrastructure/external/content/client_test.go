package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

const catalogJSON = `{
	"version": "2026.08.1",
	"lastUpdated": "2026-08-15T09:00:00Z",
	"sites": [
		{
			"id": "great_pyramid",
			"name": "Great Pyramid of Giza",
			"arabicName": "هرم خوفو",
			"era": "oldKingdom",
			"city": "giza",
			"latitude": 29.9792,
			"longitude": 31.1342,
			"subLocations": [
				{"id": "khufu_chamber", "name": "King's Chamber", "storyCardCount": 4},
				{"id": "grand_gallery", "name": "Grand Gallery", "storyCardCount": 3}
			]
		},
		{
			"id": "karnak_temple",
			"name": "Karnak Temple",
			"era": "newKingdom",
			"city": "luxor",
			"latitude": 25.7188,
			"longitude": 32.6573,
			"subLocations": []
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(DefaultClientConfig(server.URL))
}

func TestClient_FetchCatalog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/catalog", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(catalogJSON))
	})

	snap, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026.08.1", snap.Version)
	require.Len(t, snap.Sites, 2)

	giza := snap.Sites[0]
	assert.Equal(t, shared.SiteID("great_pyramid"), giza.ID)
	assert.Equal(t, site.EraOldKingdom, giza.Era)
	assert.Equal(t, site.CityGiza, giza.City)
	require.Len(t, giza.SubLocations, 2)
	assert.Equal(t, 4, giza.SubLocations[0].StoryCardCount)
}

func TestClient_FetchCatalog_MalformedEnvelope(t *testing.T) {
	cases := map[string]string{
		"empty site list": `{"version": "1", "sites": []}`,
		"bad site id":     `{"version": "1", "sites": [{"id": "Great Pyramid!", "name": "x", "era": "oldKingdom", "city": "giza", "latitude": 29.9, "longitude": 31.1}]}`,
		"bad coordinate":  `{"version": "1", "sites": [{"id": "great_pyramid", "name": "x", "era": "oldKingdom", "city": "giza", "latitude": 999, "longitude": 31.1}]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			_, err := client.FetchCatalog(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrContentMalformed)
		})
	}
}

func TestClient_FetchCatalog_NotFoundIsNotRetried(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_FetchCatalog_DuplicateSiteRejected(t *testing.T) {
	body := `{"version": "1", "sites": [
		{"id": "great_pyramid", "name": "a", "era": "oldKingdom", "city": "giza", "latitude": 29.9, "longitude": 31.1},
		{"id": "great_pyramid", "name": "b", "era": "oldKingdom", "city": "giza", "latitude": 29.9, "longitude": 31.1}
	]}`
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	_, err := client.FetchCatalog(context.Background())
	assert.ErrorIs(t, err, shared.ErrContentMalformed)
}

func TestClient_Version(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/catalog/version", r.URL.Path)
		_, _ = w.Write([]byte(`{"version": "2026.08.1"}`))
	})

	version, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026.08.1", version)
}
