package progress

import (
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS STATE
// ══════════════════════════════════════════════════════════════════════════════

// State is the user's full reward state. It is owned by a Store: all
// mutation happens inside a Store.Update closure, so the methods here can
// stay lock-free.
//
// Invariants maintained by the mutators:
//   - SelfReportedSites is always a subset of ExplorerBadges.
//   - TotalPoints never decreases except through a full reset.
//   - Each achievement unlocks at most once.
type State struct {
	// TotalPoints is the cumulative reward points total.
	TotalPoints shared.Points

	// ScholarBadges are the knowledge keys earned, one per sub-location
	// whose story content was fully consumed.
	ScholarBadges map[shared.SubLocationID]bool

	// ExplorerBadges are the discovery keys earned, one per visited site
	// (verified or self-reported).
	ExplorerBadges map[shared.SiteID]bool

	// SelfReportedSites marks explorer badges that were granted without
	// geolocation proof. Always a subset of ExplorerBadges.
	SelfReportedSites map[shared.SiteID]bool

	// VerifiedVisits records the last time a visit of either kind was
	// recorded per site; cooldown arithmetic reads from here.
	VerifiedVisits map[shared.SiteID]time.Time

	// CompletedQuizzes are quizzes answered correctly at least once.
	CompletedQuizzes map[shared.QuizID]bool

	// DiscoveredPlaces records the last rewarded content-discovery event
	// per place, subject to the discovery cooldown.
	DiscoveredPlaces map[shared.PlaceID]time.Time

	// Achievements maps unlocked achievement IDs to their unlock time.
	Achievements map[shared.AchievementID]time.Time

	// FavoriteSites is a persisted convenience set with no gameplay
	// effect.
	FavoriteSites map[shared.SiteID]bool
}

// NewState creates an empty progress state.
func NewState() *State {
	return &State{
		TotalPoints:       0,
		ScholarBadges:     make(map[shared.SubLocationID]bool),
		ExplorerBadges:    make(map[shared.SiteID]bool),
		SelfReportedSites: make(map[shared.SiteID]bool),
		VerifiedVisits:    make(map[shared.SiteID]time.Time),
		CompletedQuizzes:  make(map[shared.QuizID]bool),
		DiscoveredPlaces:  make(map[shared.PlaceID]time.Time),
		Achievements:      make(map[shared.AchievementID]time.Time),
		FavoriteSites:     make(map[shared.SiteID]bool),
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := NewState()
	out.TotalPoints = s.TotalPoints
	for k, v := range s.ScholarBadges {
		out.ScholarBadges[k] = v
	}
	for k, v := range s.ExplorerBadges {
		out.ExplorerBadges[k] = v
	}
	for k, v := range s.SelfReportedSites {
		out.SelfReportedSites[k] = v
	}
	for k, v := range s.VerifiedVisits {
		out.VerifiedVisits[k] = v
	}
	for k, v := range s.CompletedQuizzes {
		out.CompletedQuizzes[k] = v
	}
	for k, v := range s.DiscoveredPlaces {
		out.DiscoveredPlaces[k] = v
	}
	for k, v := range s.Achievements {
		out.Achievements[k] = v
	}
	for k, v := range s.FavoriteSites {
		out.FavoriteSites[k] = v
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────
// Read accessors
// ──────────────────────────────────────────────────────────────────────────

// HasScholarBadge reports whether the knowledge key for a sub-location is
// earned.
func (s *State) HasScholarBadge(id shared.SubLocationID) bool {
	return s.ScholarBadges[id]
}

// HasExplorerBadge reports whether the discovery key for a site is earned.
func (s *State) HasExplorerBadge(id shared.SiteID) bool {
	return s.ExplorerBadges[id]
}

// IsSelfReported reports whether a site's visit is recorded without
// geolocation proof.
func (s *State) IsSelfReported(id shared.SiteID) bool {
	return s.SelfReportedSites[id]
}

// IsFullyVerified reports whether a site's visit is geolocation-verified.
func (s *State) IsFullyVerified(id shared.SiteID) bool {
	return s.ExplorerBadges[id] && !s.SelfReportedSites[id]
}

// HasAchievement reports whether an achievement is already unlocked.
func (s *State) HasAchievement(id shared.AchievementID) bool {
	_, ok := s.Achievements[id]
	return ok
}

// RevisitCooldownRemaining returns how much of the revisit cooldown is left
// for a site at the given instant. Zero means the site is eligible again.
func (s *State) RevisitCooldownRemaining(id shared.SiteID, now time.Time) time.Duration {
	last, ok := s.VerifiedVisits[id]
	if !ok {
		return 0
	}
	remaining := RevisitCooldown - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DiscoveryCooldownRemaining returns how much of the discovery cooldown is
// left for a place at the given instant.
func (s *State) DiscoveryCooldownRemaining(id shared.PlaceID, now time.Time) time.Duration {
	last, ok := s.DiscoveredPlaces[id]
	if !ok {
		return 0
	}
	remaining := DiscoveryCooldown - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ──────────────────────────────────────────────────────────────────────────
// Mutators
// Each mutator is idempotent where the rules require it and reports whether
// it changed anything, so callers know when to re-evaluate achievements.
// ──────────────────────────────────────────────────────────────────────────

// CreditPoints adds points to the total. Negative amounts are ignored.
func (s *State) CreditPoints(amount int) {
	s.TotalPoints = s.TotalPoints.Add(amount)
}

// AwardScholarBadge inserts a knowledge key and credits its points.
// A no-op returning false when the badge is already present.
func (s *State) AwardScholarBadge(id shared.SubLocationID) bool {
	if s.ScholarBadges[id] {
		return false
	}
	s.ScholarBadges[id] = true
	s.CreditPoints(PointsScholarBadge)
	return true
}

// RecordVerifiedVisit inserts the discovery key for a geolocation-verified
// visit, stamps the visit time, and credits the verified-visit points.
// Used for first-time visits and for post-cooldown re-verification.
func (s *State) RecordVerifiedVisit(id shared.SiteID, now time.Time) {
	s.ExplorerBadges[id] = true
	delete(s.SelfReportedSites, id)
	s.VerifiedVisits[id] = now
	s.CreditPoints(PointsVerifiedVisit)
}

// UpgradeSelfReportedVisit converts a self-reported visit into a verified
// one, crediting only the upgrade difference. The caller must have checked
// IsSelfReported first.
func (s *State) UpgradeSelfReportedVisit(id shared.SiteID, now time.Time) {
	delete(s.SelfReportedSites, id)
	s.ExplorerBadges[id] = true
	s.VerifiedVisits[id] = now
	s.CreditPoints(PointsVisitUpgrade)
}

// RecordSelfReportedVisit inserts the discovery key without geolocation
// proof and credits the self-report points.
func (s *State) RecordSelfReportedVisit(id shared.SiteID, now time.Time) {
	s.ExplorerBadges[id] = true
	s.SelfReportedSites[id] = true
	s.VerifiedVisits[id] = now
	s.CreditPoints(PointsSelfReportedVisit)
}

// RecordPlaceDiscovery credits a content-discovery reward if the place was
// never rewarded or its cooldown has elapsed. Returns false when still in
// cooldown.
func (s *State) RecordPlaceDiscovery(id shared.PlaceID, now time.Time) bool {
	if s.DiscoveryCooldownRemaining(id, now) > 0 {
		return false
	}
	s.DiscoveredPlaces[id] = now
	s.CreditPoints(PointsPlaceDiscovery)
	return true
}

// RecordCorrectQuiz credits the quiz reward on the first correct answer.
// A no-op returning false on repeat answers.
func (s *State) RecordCorrectQuiz(id shared.QuizID) bool {
	if s.CompletedQuizzes[id] {
		return false
	}
	s.CompletedQuizzes[id] = true
	s.CreditPoints(PointsQuizCorrect)
	return true
}

// UnlockAchievement inserts an achievement into the unlock set and pays its
// reward exactly once. A no-op returning false when already unlocked.
func (s *State) UnlockAchievement(id shared.AchievementID, rewardPoints int, now time.Time) bool {
	if _, ok := s.Achievements[id]; ok {
		return false
	}
	s.Achievements[id] = now
	s.CreditPoints(rewardPoints)
	return true
}

// ToggleFavorite flips a site's favorite flag and returns the new value.
func (s *State) ToggleFavorite(id shared.SiteID) bool {
	if s.FavoriteSites[id] {
		delete(s.FavoriteSites, id)
		return false
	}
	s.FavoriteSites[id] = true
	return true
}

// Validate checks the structural invariants. Used after decoding persisted
// state, where a partial write could have left the field groups inconsistent.
func (s *State) Validate() error {
	for id := range s.SelfReportedSites {
		if !s.ExplorerBadges[id] {
			return shared.NewDomainError("progress", "Validate", shared.ErrInvalidState,
				"self-reported site without explorer badge: "+id.String())
		}
	}
	if !s.TotalPoints.IsValid() {
		return shared.NewDomainError("progress", "Validate", shared.ErrValueOutOfRange,
			"points total out of range")
	}
	return nil
}
