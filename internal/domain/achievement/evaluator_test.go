package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

func testSites() []site.Site {
	return []site.Site{
		{
			ID: "giza", Name: "Giza Plateau", Era: site.EraOldKingdom, City: site.CityGiza,
			SubLocations: []site.SubLocation{
				{ID: "great_pyramid", StoryCardCount: 5},
				{ID: "sphinx", StoryCardCount: 3},
			},
		},
		{
			ID: "karnak", Name: "Karnak Temple", Era: site.EraNewKingdom, City: site.CityLuxor,
			SubLocations: []site.SubLocation{
				{ID: "hypostyle_hall", StoryCardCount: 4},
			},
		},
		{
			ID: "valley_kings", Name: "Valley of the Kings", Era: site.EraNewKingdom, City: site.CityLuxor,
			SubLocations: []site.SubLocation{
				{ID: "tut_tomb", StoryCardCount: 6},
			},
		},
	}
}

func completeSite(s *progress.State, st site.Site, now time.Time) {
	s.RecordVerifiedVisit(st.ID, now)
	for _, sub := range st.SubLocations {
		s.AwardScholarBadge(sub.ID)
	}
}

func TestDefaultCatalog_Valid(t *testing.T) {
	c := DefaultCatalog()
	assert.Greater(t, c.Len(), 0)

	a, err := c.ByID("first_discovery")
	require.NoError(t, err)
	assert.Equal(t, RequireSitesCompleted, a.Requirement.Kind)
	assert.Equal(t, 1, a.Requirement.Target)

	_, err = c.ByID("no_such_thing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	defs := []Achievement{
		{ID: "dup", Name: "A", Requirement: Requirement{Kind: RequireQuizzes, Target: 1}},
		{ID: "dup", Name: "B", Requirement: Requirement{Kind: RequireQuizzes, Target: 2}},
	}
	_, err := NewCatalog(defs)
	require.Error(t, err)
}

func TestNewCatalog_RejectsBadRequirement(t *testing.T) {
	_, err := NewCatalog([]Achievement{
		{ID: "broken", Requirement: Requirement{Kind: RequireScholarBadges, Target: 0}},
	})
	require.Error(t, err)

	_, err = NewCatalog([]Achievement{
		{ID: "broken", Requirement: Requirement{Kind: RequireAllSites, Target: 3}},
	})
	require.Error(t, err)
}

func TestEvaluate_FirstDiscovery_UnlocksOnce(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog())
	sites := testSites()
	s := progress.NewState()
	now := time.Now().UTC()

	completeSite(s, sites[0], now)
	before := s.TotalPoints.Int()

	unlocks := ev.Evaluate(s, sites, now)

	ids := make([]shared.AchievementID, 0, len(unlocks))
	for _, u := range unlocks {
		ids = append(ids, u.Achievement.ID)
	}
	assert.Contains(t, ids, shared.AchievementID("first_discovery"))
	assert.Contains(t, ids, shared.AchievementID("first_footsteps"))
	assert.True(t, s.HasAchievement("first_discovery"))
	assert.Greater(t, s.TotalPoints.Int(), before)

	// Second pass over the same state unlocks nothing and pays nothing.
	after := s.TotalPoints.Int()
	assert.Empty(t, ev.Evaluate(s, sites, now.Add(time.Minute)))
	assert.Equal(t, after, s.TotalPoints.Int())
}

func TestEvaluate_ExplorerBadgeAloneIsNotCompletion(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog())
	sites := testSites()
	s := progress.NewState()
	now := time.Now().UTC()

	// Visit without reading: discovery key but no knowledge keys.
	s.RecordVerifiedVisit("giza", now)
	ev.Evaluate(s, sites, now)

	assert.False(t, s.HasAchievement("first_discovery"))
	assert.True(t, s.HasAchievement("first_footsteps"))
}

func TestEvaluate_SelfReportCountsTowardCompletion(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog())
	sites := testSites()
	s := progress.NewState()
	now := time.Now().UTC()

	s.RecordSelfReportedVisit("giza", now)
	s.AwardScholarBadge("great_pyramid")
	s.AwardScholarBadge("sphinx")
	ev.Evaluate(s, sites, now)

	assert.True(t, s.HasAchievement("first_discovery"))
}

func TestEvaluate_CityComplete(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog())
	sites := testSites()
	s := progress.NewState()
	now := time.Now().UTC()

	// Both Luxor sites completed; they also happen to be the only
	// newKingdom sites, so the era predicate fires too.
	completeSite(s, sites[1], now)
	completeSite(s, sites[2], now)
	ev.Evaluate(s, sites, now)

	assert.True(t, s.HasAchievement("city_keeper"))
	assert.True(t, s.HasAchievement("era_guardian"))
	assert.False(t, s.HasAchievement("master_of_sites"))
}

func TestEvaluate_FullCompletion(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog())
	sites := testSites()
	s := progress.NewState()
	now := time.Now().UTC()

	for _, st := range sites {
		completeSite(s, st, now)
	}
	ev.Evaluate(s, sites, now)

	assert.True(t, s.HasAchievement("master_of_sites"))
	assert.True(t, s.HasAchievement("pharaohs_legacy"))
}

func TestEvaluate_EmptyCatalogOfSites_NoPredicateUnlocks(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog())
	s := progress.NewState()
	now := time.Now().UTC()

	// With zero sites the all/full predicates must not fire vacuously.
	ev.Evaluate(s, nil, now)
	assert.False(t, s.HasAchievement("master_of_sites"))
	assert.False(t, s.HasAchievement("pharaohs_legacy"))
	assert.False(t, s.HasAchievement("city_keeper"))
}

func TestProgressFor_Figures(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog())
	sites := testSites()
	s := progress.NewState()
	now := time.Now().UTC()

	s.AwardScholarBadge("great_pyramid")
	s.AwardScholarBadge("sphinx")
	s.RecordVerifiedVisit("giza", now)

	var curious Progress
	found := false
	for _, p := range ev.ProgressFor(s, sites) {
		if p.Achievement.ID == "curious_mind" {
			curious = p
			found = true
		}
	}
	require.True(t, found)
	assert.Equal(t, 2, curious.Current)
	assert.Equal(t, 10, curious.Required)
	assert.False(t, curious.Unlocked)
}

func TestProgressFor_FullCompletionFigures(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog())
	sites := testSites()
	s := progress.NewState()
	now := time.Now().UTC()

	completeSite(s, sites[0], now)

	for _, p := range ev.ProgressFor(s, sites) {
		if p.Achievement.ID == "pharaohs_legacy" {
			// One of three sites fully completed.
			assert.Equal(t, 1, p.Current)
			assert.Equal(t, 3, p.Required)
			return
		}
	}
	t.Fatal("pharaohs_legacy not in catalog")
}

func TestNextToUnlock_PicksClosest(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog())
	sites := testSites()
	s := progress.NewState()
	now := time.Now().UTC()

	completeSite(s, sites[0], now)
	ev.Evaluate(s, sites, now)

	next := ev.NextToUnlock(s, sites)
	require.NotNil(t, next)
	assert.False(t, next.Unlocked)
	assert.Greater(t, next.Required, 0)
}

func TestMemo_CachesPerGeneration(t *testing.T) {
	var m Memo[int]
	calls := 0
	compute := func() int { calls++; return calls }

	assert.Equal(t, 1, m.Get(7, compute))
	assert.Equal(t, 1, m.Get(7, compute))
	assert.Equal(t, 1, calls)

	assert.Equal(t, 2, m.Get(8, compute))
	assert.Equal(t, 2, calls)

	m.Invalidate()
	assert.Equal(t, 3, m.Get(8, compute))
}
