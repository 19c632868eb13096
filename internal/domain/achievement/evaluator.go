package achievement

import (
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Evaluation
// ═══════════════════════════════════════════════════════════════════════════

// Unlock describes one achievement unlocked by an evaluation pass.
type Unlock struct {
	Achievement  Achievement
	RewardPoints int
	UnlockedAt   time.Time
}

// Progress is the locked-achievement progress hint for display.
type Progress struct {
	Achievement Achievement
	Current     int
	Required    int
	Unlocked    bool
	UnlockedAt  time.Time
}

// Evaluator checks the catalog against progress state and unlocks whatever
// qualifies. It is stateless; callers run it inside a Store.Update closure
// so the check-and-unlock is atomic with the triggering mutation.
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator creates an evaluator over the given catalog.
func NewEvaluator(catalog *Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// Evaluate unlocks every qualifying achievement that is not yet unlocked,
// crediting each reward exactly once, and returns the new unlocks in catalog
// order. Reward points credited here can themselves never qualify further
// achievements, so a single pass suffices.
func (e *Evaluator) Evaluate(s *progress.State, sites []site.Site, now time.Time) []Unlock {
	agg := aggregate(s, sites)

	var unlocks []Unlock
	for _, def := range e.catalog.list {
		if s.HasAchievement(def.ID) {
			continue
		}
		if !agg.satisfies(def.Requirement) {
			continue
		}
		if s.UnlockAchievement(def.ID, def.RewardPoints, now) {
			unlocks = append(unlocks, Unlock{Achievement: def, RewardPoints: def.RewardPoints, UnlockedAt: now})
		}
	}
	return unlocks
}

// ProgressFor reports per-achievement progress for display, in catalog order.
func (e *Evaluator) ProgressFor(s *progress.State, sites []site.Site) []Progress {
	agg := aggregate(s, sites)

	out := make([]Progress, 0, len(e.catalog.list))
	for _, def := range e.catalog.list {
		p := Progress{Achievement: def}
		if at, ok := s.Achievements[def.ID]; ok {
			p.Unlocked = true
			p.UnlockedAt = at
		}
		p.Current, p.Required = agg.progressFigures(def.Requirement)
		out = append(out, p)
	}
	return out
}

// NextToUnlock returns the locked achievement closest to completion, or nil
// when everything is unlocked. Catalog kinds with no meaningful fraction
// rank behind counter kinds.
func (e *Evaluator) NextToUnlock(s *progress.State, sites []site.Site) *Progress {
	return ClosestToUnlock(e.ProgressFor(s, sites))
}

// ClosestToUnlock picks the locked row with the highest completion fraction
// from an already-computed progress slice, or nil when every row is
// unlocked. Callers holding memoized ProgressFor output use this directly.
func ClosestToUnlock(rows []Progress) *Progress {
	var best *Progress
	bestFraction := -1.0
	for _, p := range rows {
		if p.Unlocked || p.Required == 0 {
			continue
		}
		fraction := float64(p.Current) / float64(p.Required)
		if fraction > bestFraction {
			copied := p
			best = &copied
			bestFraction = fraction
		}
	}
	return best
}

// FullyCompletedCount counts sites with a verified or self-reported visit
// plus every scholar badge.
func FullyCompletedCount(s *progress.State, sites []site.Site) int {
	n := 0
	for _, st := range sites {
		if siteFullyCompleted(s, st) {
			n++
		}
	}
	return n
}

func siteFullyCompleted(s *progress.State, st site.Site) bool {
	if !s.HasExplorerBadge(st.ID) {
		return false
	}
	for _, sub := range st.SubLocations {
		if !s.HasScholarBadge(sub.ID) {
			return false
		}
	}
	return true
}

// aggregates is one snapshot of the progress figures the requirement kinds
// compare against. Computed once per evaluation pass.
type aggregates struct {
	scholarBadges  int
	explorerBadges int
	quizzes        int
	sitesCompleted int
	totalSites     int
	cityComplete   bool
	eraComplete    bool
}

func aggregate(s *progress.State, sites []site.Site) aggregates {
	agg := aggregates{
		scholarBadges:  len(s.ScholarBadges),
		explorerBadges: len(s.ExplorerBadges),
		quizzes:        len(s.CompletedQuizzes),
		totalSites:     len(sites),
	}

	completed := make(map[shared.SiteID]bool, len(sites))
	for _, st := range sites {
		if siteFullyCompleted(s, st) {
			completed[st.ID] = true
			agg.sitesCompleted++
		}
	}

	for _, bucket := range site.GroupByCity(sites) {
		if allCompleted(bucket, completed) {
			agg.cityComplete = true
			break
		}
	}
	for _, bucket := range site.GroupByEra(sites) {
		if allCompleted(bucket, completed) {
			agg.eraComplete = true
			break
		}
	}

	return agg
}

func allCompleted(bucket []site.Site, completed map[shared.SiteID]bool) bool {
	if len(bucket) == 0 {
		return false
	}
	for _, st := range bucket {
		if !completed[st.ID] {
			return false
		}
	}
	return true
}

func (a aggregates) satisfies(r Requirement) bool {
	current, required := a.progressFigures(r)
	if required == 0 {
		return false
	}
	return current >= required
}

// progressFigures maps a requirement onto a current/required pair. Predicate
// kinds report 0-or-1 over 1 so display code can treat every kind uniformly.
func (a aggregates) progressFigures(r Requirement) (current, required int) {
	switch r.Kind {
	case RequireSitesCompleted:
		return a.sitesCompleted, r.Target
	case RequireScholarBadges:
		return a.scholarBadges, r.Target
	case RequireExplorerBadges:
		return a.explorerBadges, r.Target
	case RequireQuizzes:
		return a.quizzes, r.Target
	case RequireAllSites:
		if a.totalSites == 0 {
			return 0, 0
		}
		return a.sitesCompleted, a.totalSites
	case RequireCityComplete:
		return boolToInt(a.cityComplete), 1
	case RequireEraComplete:
		return boolToInt(a.eraComplete), 1
	case RequireFullCompletion:
		if a.totalSites == 0 {
			return 0, 0
		}
		return a.sitesCompleted, a.totalSites
	default:
		return 0, 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
