package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/location"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

// fakeStore is an unpersisted Store for handler tests.
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

// fakePort is a canned positioning port.
type fakePort struct {
	auth  location.AuthorizationStatus
	pos   *location.Position
	err   error
	calls int
}

func (f *fakePort) Authorization() location.AuthorizationStatus { return f.auth }

func (f *fakePort) RequestPosition(context.Context, time.Duration) (*location.Position, error) {
	f.calls++
	return f.pos, f.err
}

// capturingPublisher records published events.
type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(e shared.Event) error {
	p.events = append(p.events, e)
	return nil
}

var gizaCoord = shared.Coordinate{Latitude: 29.9792, Longitude: 31.1342}

func visitTestCatalog() site.Catalog {
	return site.NewStaticCatalog([]site.Site{
		{
			ID: "giza", Name: "Giza Plateau", Era: site.EraOldKingdom, City: site.CityGiza,
			Coordinate: gizaCoord,
			SubLocations: []site.SubLocation{
				{ID: "great_pyramid", StoryCardCount: 5},
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

// visitTestEvaluator keeps one reachable achievement so unlock side effects
// stay predictable in point assertions.
func visitTestEvaluator(t *testing.T) *achievement.Evaluator {
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

// fresh returns a position fix near the given coordinate that passes the
// freshness gate at time now.
func fresh(coord shared.Coordinate, now time.Time) *location.Position {
	return &location.Position{Coordinate: coord, AccuracyMeters: 10, Timestamp: now}
}

func newVerifyHandler(store progress.Store, port location.Port, ev *achievement.Evaluator, pub shared.EventPublisher) *VerifyVisitHandler {
	return NewVerifyVisitHandler(store, visitTestCatalog(), ev, port, pub, time.Second)
}

// ══════════════════════════════════════════════════════════════════════════════
// VERIFY VISIT
// ══════════════════════════════════════════════════════════════════════════════

func TestVerifyVisit_FirstVisitWithinRadius(t *testing.T) {
	store := newFakeStore()
	pub := &capturingPublisher{}
	now := time.Now().UTC()
	port := &fakePort{auth: location.AuthorizationAuthorized, pos: fresh(gizaCoord, now)}
	h := newVerifyHandler(store, port, visitTestEvaluator(t), pub)

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza", Timestamp: now})
	require.NoError(t, err)

	assert.Equal(t, progress.VisitVerified, result.Outcome.Status)
	assert.Equal(t, progress.PointsVerifiedVisit, result.Outcome.PointsAwarded)
	assert.Equal(t, progress.PointsVerifiedVisit, result.TotalPoints)
	assert.True(t, store.state.IsFullyVerified("giza"))
	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventVisitVerified, pub.events[0].EventType())
}

func TestVerifyVisit_RevisitBlockedByCooldown(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	store.state.RecordVerifiedVisit("giza", now.Add(-24*time.Hour))
	port := &fakePort{auth: location.AuthorizationAuthorized, pos: fresh(gizaCoord, now)}
	h := newVerifyHandler(store, port, visitTestEvaluator(t), &capturingPublisher{})

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza", Timestamp: now})
	require.NoError(t, err)

	assert.Equal(t, progress.VisitBlocked, result.Outcome.Status)
	assert.Equal(t, 29, result.Outcome.DaysRemaining)
	assert.Equal(t, progress.PointsVerifiedVisit, result.TotalPoints)
	assert.Equal(t, uint64(0), store.gen)
}

func TestVerifyVisit_CooldownBlocksBeforePositionLookup(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	store.state.RecordVerifiedVisit("giza", now.Add(-24*time.Hour))

	// The port would time out; a cooldown rejection must come back as
	// blocked without ever asking it for a fix.
	port := &fakePort{auth: location.AuthorizationAuthorized, err: shared.ErrTimeout}
	h := newVerifyHandler(store, port, visitTestEvaluator(t), &capturingPublisher{})

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza", Timestamp: now})
	require.NoError(t, err)

	assert.Equal(t, progress.VisitBlocked, result.Outcome.Status)
	assert.Equal(t, 29, result.Outcome.DaysRemaining)
	assert.Equal(t, progress.PointsVerifiedVisit, result.TotalPoints)
	assert.Equal(t, 0, port.calls)
	assert.Equal(t, uint64(0), store.gen)
}

func TestVerifyVisit_RevisitAfterCooldownRewardsAgain(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	store.state.RecordVerifiedVisit("giza", now.Add(-31*24*time.Hour))
	port := &fakePort{auth: location.AuthorizationAuthorized, pos: fresh(gizaCoord, now)}
	h := newVerifyHandler(store, port, visitTestEvaluator(t), &capturingPublisher{})

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza", Timestamp: now})
	require.NoError(t, err)

	assert.Equal(t, progress.VisitVerified, result.Outcome.Status)
	assert.Equal(t, 2*progress.PointsVerifiedVisit, result.TotalPoints)
}

func TestVerifyVisit_TooFar(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	away := shared.Coordinate{Latitude: 30.05, Longitude: 31.23}
	port := &fakePort{auth: location.AuthorizationAuthorized, pos: fresh(away, now)}
	h := newVerifyHandler(store, port, visitTestEvaluator(t), &capturingPublisher{})

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza", Timestamp: now})
	require.NoError(t, err)

	assert.Equal(t, progress.VisitTooFar, result.Outcome.Status)
	assert.Greater(t, result.Outcome.DistanceKm, 0.2)
	assert.Equal(t, 0, result.TotalPoints)
	assert.False(t, store.state.HasExplorerBadge("giza"))
}

func TestVerifyVisit_NoLocationWhenDenied(t *testing.T) {
	store := newFakeStore()
	port := &fakePort{auth: location.AuthorizationDenied}
	h := newVerifyHandler(store, port, visitTestEvaluator(t), &capturingPublisher{})

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza"})
	require.NoError(t, err)

	assert.Equal(t, progress.VisitNoLocation, result.Outcome.Status)
	assert.Equal(t, 0, result.TotalPoints)
}

func TestVerifyVisit_NoLocationOnTimeout(t *testing.T) {
	store := newFakeStore()
	port := &fakePort{auth: location.AuthorizationAuthorized, err: shared.ErrTimeout}
	h := newVerifyHandler(store, port, visitTestEvaluator(t), &capturingPublisher{})

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza"})
	require.NoError(t, err)
	assert.Equal(t, progress.VisitNoLocation, result.Outcome.Status)
}

func TestVerifyVisit_StaleSuppliedFixRejected(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	stale := &location.Position{Coordinate: gizaCoord, AccuracyMeters: 10, Timestamp: now.Add(-5 * time.Minute)}
	h := newVerifyHandler(store, nil, visitTestEvaluator(t), &capturingPublisher{})

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza", Position: stale, Timestamp: now})
	require.NoError(t, err)
	assert.Equal(t, progress.VisitNoLocation, result.Outcome.Status)
}

func TestVerifyVisit_UpgradesSelfReport(t *testing.T) {
	store := newFakeStore()
	pub := &capturingPublisher{}
	now := time.Now().UTC()
	store.state.RecordSelfReportedVisit("giza", now.Add(-time.Hour))
	port := &fakePort{auth: location.AuthorizationAuthorized, pos: fresh(gizaCoord, now)}
	h := newVerifyHandler(store, port, visitTestEvaluator(t), pub)

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza", Timestamp: now})
	require.NoError(t, err)

	assert.Equal(t, progress.VisitUpgraded, result.Outcome.Status)
	assert.Equal(t, progress.PointsVisitUpgrade, result.Outcome.PointsAwarded)

	// 30 self-report + 20 upgrade: the site totals 50, never 80.
	assert.Equal(t, progress.PointsVerifiedVisit, result.TotalPoints)
	assert.True(t, store.state.IsFullyVerified("giza"))
	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventVisitUpgraded, pub.events[0].EventType())
}

func TestVerifyVisit_UnknownSite(t *testing.T) {
	h := newVerifyHandler(newFakeStore(), &fakePort{auth: location.AuthorizationAuthorized}, visitTestEvaluator(t), &capturingPublisher{})

	_, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "atlantis"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestVerifyVisit_AchievementUnlockPublishes(t *testing.T) {
	store := newFakeStore()
	pub := &capturingPublisher{}
	now := time.Now().UTC()

	// Scholar badge already held: the verified visit completes the site.
	store.state.AwardScholarBadge("great_pyramid")
	port := &fakePort{auth: location.AuthorizationAuthorized, pos: fresh(gizaCoord, now)}
	h := newVerifyHandler(store, port, visitTestEvaluator(t), pub)

	result, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza", Timestamp: now})
	require.NoError(t, err)

	require.Len(t, result.Unlocks, 1)
	assert.Equal(t, shared.AchievementID("first_discovery"), result.Unlocks[0].Achievement.ID)
	// 1 badge + 50 visit + 100 unlock reward.
	assert.Equal(t, progress.PointsScholarBadge+progress.PointsVerifiedVisit+100, result.TotalPoints)

	require.Len(t, pub.events, 2)
	assert.Equal(t, shared.EventAchievementUnlocked, pub.events[1].EventType())

	// Repeat after the cooldown never re-unlocks.
	later := now.Add(31 * 24 * time.Hour)
	port.pos = fresh(gizaCoord, later)
	again, err := h.Handle(context.Background(), VerifyVisitCommand{SiteID: "giza", Timestamp: later})
	require.NoError(t, err)
	assert.Empty(t, again.Unlocks)
}
