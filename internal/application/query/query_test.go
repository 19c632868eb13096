package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

type fakeStore struct {
	state *progress.State
	gen   uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: progress.NewState()}
}

func (f *fakeStore) View(_ context.Context, fn func(*progress.State) error) error {
	return fn(f.state)
}

func (f *fakeStore) Update(_ context.Context, fn func(*progress.State) error) error {
	if err := fn(f.state); err != nil {
		return err
	}
	f.gen++
	return nil
}

func (f *fakeStore) Generation() uint64 { return f.gen }

func (f *fakeStore) Reset(_ context.Context) error {
	f.state = progress.NewState()
	f.gen++
	return nil
}

func queryTestCatalog() site.Catalog {
	return site.NewStaticCatalog([]site.Site{
		{
			ID: "giza", Name: "Giza Plateau", Era: site.EraOldKingdom, City: site.CityGiza,
			Coordinate: shared.Coordinate{Latitude: 29.9792, Longitude: 31.1342},
			SubLocations: []site.SubLocation{
				{ID: "great_pyramid", StoryCardCount: 5},
				{ID: "sphinx", StoryCardCount: 3},
			},
		},
		{
			ID: "karnak", Name: "Karnak Temple", Era: site.EraNewKingdom, City: site.CityLuxor,
			Coordinate: shared.Coordinate{Latitude: 25.7188, Longitude: 32.6573},
			SubLocations: []site.SubLocation{
				{ID: "hypostyle_hall", StoryCardCount: 4},
			},
		},
	})
}

func TestGetProgress_FreshState(t *testing.T) {
	h := NewGetProgressHandler(newFakeStore(), queryTestCatalog())

	result, err := h.Handle(context.Background(), GetProgressQuery{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalPoints)
	assert.Equal(t, "wanderer", result.Rank.Rank)
	assert.Equal(t, 51, result.Rank.PointsToNext)
	assert.Equal(t, 2, result.TotalSites)
	assert.Equal(t, 0, result.SitesCompleted)
	assert.Empty(t, result.Sites)
}

func TestGetProgress_RankAndCounts(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	store.state.RecordVerifiedVisit("giza", now)     // +50
	store.state.AwardScholarBadge("great_pyramid")   // +1
	store.state.AwardScholarBadge("sphinx")          // +1
	store.state.RecordCorrectQuiz("q_great_pyramid") // +10
	store.gen = 1
	h := NewGetProgressHandler(store, queryTestCatalog())

	result, err := h.Handle(context.Background(), GetProgressQuery{IncludeSites: true})
	require.NoError(t, err)

	assert.Equal(t, 62, result.TotalPoints)
	assert.Equal(t, "traveler", result.Rank.Rank)
	assert.Equal(t, "Traveler", result.Rank.Title)
	assert.Equal(t, 151-62, result.Rank.PointsToNext)
	assert.Equal(t, "explorer", result.Rank.NextRank)
	assert.Equal(t, 2, result.ScholarBadges)
	assert.Equal(t, 1, result.ExplorerBadges)
	assert.Equal(t, 1, result.CompletedQuizzes)
	assert.Equal(t, 1, result.SitesCompleted)

	require.Len(t, result.Sites, 2)
	var giza SiteProgressDTO
	for _, s := range result.Sites {
		if s.SiteID == "giza" {
			giza = s
		}
	}
	assert.True(t, giza.Visited)
	assert.True(t, giza.FullyCompleted)
	assert.Equal(t, 2, giza.ScholarBadges)
	assert.Equal(t, 2, giza.ScholarBadgesTotal)
	assert.Equal(t, 30, giza.RevisitDaysRemaining)
}

func TestGetProgress_MemoizesPerGeneration(t *testing.T) {
	store := newFakeStore()
	h := NewGetProgressHandler(store, queryTestCatalog())

	first, err := h.Handle(context.Background(), GetProgressQuery{})
	require.NoError(t, err)

	// Same generation: the cached result comes back, timestamp included.
	second, err := h.Handle(context.Background(), GetProgressQuery{})
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)

	// Mutate and bump: the next read recomputes.
	store.state.AwardScholarBadge("sphinx")
	store.gen++
	third, err := h.Handle(context.Background(), GetProgressQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, third.ScholarBadges)
}

func TestGetAchievements_ProgressAndFilter(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	store.state.RecordVerifiedVisit("giza", now)
	store.state.AwardScholarBadge("great_pyramid")
	store.state.AwardScholarBadge("sphinx")
	ev := achievement.NewEvaluator(achievement.DefaultCatalog())
	ev.Evaluate(store.state, mustSites(t), now)
	store.gen = 1

	h := NewGetAchievementsHandler(store, queryTestCatalog(), ev)

	result, err := h.Handle(context.Background(), GetAchievementsQuery{})
	require.NoError(t, err)

	assert.Equal(t, achievement.DefaultCatalog().Len(), result.TotalCount)
	assert.Greater(t, result.UnlockedCount, 0)
	require.NotNil(t, result.NextToUnlock)
	assert.False(t, result.NextToUnlock.Unlocked)

	// The hint is the evaluator's pick, not a parallel ranking.
	want := ev.NextToUnlock(store.state, mustSites(t))
	require.NotNil(t, want)
	assert.Equal(t, want.Achievement.ID.String(), result.NextToUnlock.ID)

	unlockedOnly, err := h.Handle(context.Background(), GetAchievementsQuery{UnlockedOnly: true})
	require.NoError(t, err)
	for _, a := range unlockedOnly.Achievements {
		assert.True(t, a.Unlocked)
		assert.NotNil(t, a.UnlockedAt)
	}

	knowledge, err := h.Handle(context.Background(), GetAchievementsQuery{Category: achievement.CategoryKnowledge})
	require.NoError(t, err)
	for _, a := range knowledge.Achievements {
		assert.Equal(t, string(achievement.CategoryKnowledge), a.Category)
	}
}

func mustSites(t *testing.T) []site.Site {
	t.Helper()
	sites, err := queryTestCatalog().Sites(context.Background())
	require.NoError(t, err)
	return sites
}
