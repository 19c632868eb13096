package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Naareman/UnlockEgypt-sub000/internal/application/command"
	"github.com/Naareman/UnlockEgypt-sub000/internal/application/query"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/notification"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/messaging"
	"github.com/Naareman/UnlockEgypt-sub000/internal/infrastructure/persistence/memory"
)

const testAdminToken = "sekret-admin-token"

var gizaCoord = shared.Coordinate{Latitude: 29.9792, Longitude: 31.1342}

// testEnvelope mirrors JSONResponse with raw data for per-test decoding.
type testEnvelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	RequestID string          `json:"request_id"`
}

func testCatalog() site.Catalog {
	return site.NewStaticCatalog([]site.Site{
		{
			ID: "giza", Name: "Giza Plateau", Era: site.EraOldKingdom, City: site.CityGiza,
			Coordinate: gizaCoord,
			SubLocations: []site.SubLocation{
				{ID: "great_pyramid", StoryCardCount: 5},
			},
		},
	})
}

func testEvaluator(t *testing.T) *achievement.Evaluator {
	t.Helper()
	cat, err := achievement.NewCatalog([]achievement.Achievement{
		{
			ID: "first_discovery", Name: "First Discovery", Category: achievement.CategoryExploration,
			Requirement:  achievement.Requirement{Kind: achievement.RequireSitesCompleted, Target: 1},
			RewardPoints: 100,
		},
	})
	require.NoError(t, err)
	return achievement.NewEvaluator(cat)
}

// newTestServer wires a full server over in-memory infrastructure.
func newTestServer(t *testing.T) (*Server, *notification.Feed) {
	t.Helper()

	store, err := memory.NewStore(context.Background(), memory.NewKV(), nil)
	require.NoError(t, err)

	catalog := testCatalog()
	evaluator := testEvaluator(t)

	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { _ = bus.Close() })

	feed := notification.NewFeed()
	require.NoError(t, bus.Subscribe(shared.EventAchievementUnlocked, notification.UnlockSubscriber(feed)))

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminToken), bcrypt.MinCost)
	require.NoError(t, err)

	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.AdminTokenHash = string(hash)

	deps := Dependencies{
		GetProgressHandler:       query.NewGetProgressHandler(store, catalog),
		GetAchievementsHandler:   query.NewGetAchievementsHandler(store, catalog, evaluator),
		VerifyVisitHandler:       command.NewVerifyVisitHandler(store, catalog, evaluator, nil, bus, time.Second),
		SelfReportVisitHandler:   command.NewSelfReportVisitHandler(store, catalog, evaluator, bus),
		AwardScholarBadgeHandler: command.NewAwardScholarBadgeHandler(store, catalog, evaluator, bus),
		CompleteQuizHandler:      command.NewCompleteQuizHandler(store, catalog, evaluator, bus),
		DiscoverPlaceHandler:     command.NewDiscoverPlaceHandler(store, catalog, evaluator, bus),
		ToggleFavoriteHandler:    command.NewToggleFavoriteHandler(store, catalog, bus),
		ResetProgressHandler:     command.NewResetProgressHandler(store, feed, bus),
		Feed:                     feed,
	}

	return NewServer(config, deps), feed
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

// ══════════════════════════════════════════════════════════════════════════════
// READS
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_GetProgress(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/progress?include_sites=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var result query.GetProgressResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 0, result.TotalPoints)
	assert.Equal(t, 1, result.TotalSites)
	require.Len(t, result.Sites, 1)
	assert.Equal(t, "giza", result.Sites[0].SiteID)
}

func TestServer_GetAchievements(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/achievements", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result query.GetAchievementsResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, 0, result.UnlockedCount)
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, env := doJSON(t, srv, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARD WRITES
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_VerifyVisit_WithinRadius(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/visits/verify", map[string]any{
		"site_id": "giza",
		"position": map[string]any{
			"latitude":        gizaCoord.Latitude,
			"longitude":       gizaCoord.Longitude,
			"accuracy_meters": 10,
			"timestamp":       time.Now().UTC(),
		},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result visitResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "verified", result.Status)
	assert.Equal(t, 50, result.PointsAwarded)
	assert.Equal(t, 50, result.TotalPoints)
}

func TestServer_VerifyVisit_TooFarIsBusinessOutcome(t *testing.T) {
	srv, _ := newTestServer(t)

	// Luxor is ~500km from Giza; still a 200, not an error.
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/visits/verify", map[string]any{
		"site_id": "giza",
		"position": map[string]any{
			"latitude":        25.7188,
			"longitude":       32.6573,
			"accuracy_meters": 10,
			"timestamp":       time.Now().UTC(),
		},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result visitResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "too_far", result.Status)
	assert.Equal(t, 0, result.PointsAwarded)
	assert.Greater(t, result.DistanceKm, 100.0)
}

func TestServer_VerifyVisit_UnknownSiteIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/visits/verify", map[string]any{
		"site_id": "atlantis",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestServer_VerifyVisit_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visits/verify", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_SelfReportThenQuiz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/visits/self-report", map[string]any{
		"site_id": "giza",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var visit visitResponse
	require.NoError(t, json.Unmarshal(env.Data, &visit))
	assert.Equal(t, "self_reported", visit.Status)
	assert.Equal(t, 30, visit.TotalPoints)

	rec, env = doJSON(t, srv, http.MethodPost, "/api/v1/quizzes/complete", map[string]any{
		"quiz_id": "q_great_pyramid_1",
		"correct": true,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quiz struct {
		Rewarded    bool `json:"rewarded"`
		TotalPoints int  `json:"total_points"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &quiz))
	assert.True(t, quiz.Rewarded)
	assert.Equal(t, 40, quiz.TotalPoints)
}

func TestServer_UnlockFlowsToNotificationFeed(t *testing.T) {
	srv, feed := newTestServer(t)

	_, _ = doJSON(t, srv, http.MethodPost, "/api/v1/visits/verify", map[string]any{
		"site_id": "giza",
		"position": map[string]any{
			"latitude":        gizaCoord.Latitude,
			"longitude":       gizaCoord.Longitude,
			"accuracy_meters": 10,
			"timestamp":       time.Now().UTC(),
		},
	}, nil)

	// Finishing the only sub-location completes the site and unlocks the
	// exploration achievement.
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/reading/complete", map[string]any{
		"site_id":         "giza",
		"sub_location_id": "great_pyramid",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var award struct {
		Awarded     bool        `json:"awarded"`
		TotalPoints int         `json:"total_points"`
		Unlocks     []unlockDTO `json:"unlocks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &award))
	assert.True(t, award.Awarded)
	require.Len(t, award.Unlocks, 1)
	assert.Equal(t, "first_discovery", award.Unlocks[0].ID)
	assert.Equal(t, 151, award.TotalPoints) // 50 visit + 1 badge + 100 unlock

	// The sync bus delivered the unlock before the response was written.
	pending := feed.Pending()
	require.Len(t, pending, 1)

	rec, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/v1/notifications/%s/ack", pending[0].ID), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Second ack of the same notice is gone.
	rec, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/v1/notifications/%s/ack", pending[0].ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ToggleFavorite(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/favorites/toggle", map[string]any{
		"site_id": "giza",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Favorite bool `json:"favorite"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Favorite)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_AdminReset_RequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/admin/reset", map[string]any{"confirm": true}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/admin/reset", map[string]any{"confirm": true}, map[string]string{
		"Authorization": "Bearer wrong-token",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_AdminReset_WipesProgress(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _ = doJSON(t, srv, http.MethodPost, "/api/v1/visits/self-report", map[string]any{
		"site_id": "giza",
	}, nil)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/admin/reset", map[string]any{"confirm": true}, map[string]string{
		"Authorization": "Bearer " + testAdminToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Reset           bool `json:"reset"`
		PointsDiscarded int  `json:"points_discarded"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Reset)
	assert.Equal(t, 30, result.PointsDiscarded)

	_, progEnv := doJSON(t, srv, http.MethodGet, "/api/v1/progress", nil, nil)
	var prog query.GetProgressResult
	require.NoError(t, json.Unmarshal(progEnv.Data, &prog))
	assert.Equal(t, 0, prog.TotalPoints)
}

func TestServer_AdminReset_ConfirmationRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/admin/reset", map[string]any{"confirm": false}, map[string]string{
		"Authorization": "Bearer " + testAdminToken,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING EDGES
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_NilHandlerReturns501(t *testing.T) {
	srv := NewServer(DefaultConfig(), Dependencies{})

	rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/progress", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_implemented", env.Error.Code)
}

func TestServer_AdminDisabledWithoutHash(t *testing.T) {
	srv := NewServer(DefaultConfig(), Dependencies{})

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/admin/reset", map[string]any{"confirm": true}, map[string]string{
		"Authorization": "Bearer " + testAdminToken,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
