// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/rank"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// The profile screen's single read: points, rank, counts, and per-site
// status. Aggregates are memoized against the store generation.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery contains the parameters for a progress read.
type GetProgressQuery struct {
	// IncludeSites includes the per-site breakdown.
	IncludeSites bool
}

// RankDTO is the rank block of the profile.
type RankDTO struct {
	// Rank is the tier name.
	Rank string `json:"rank"`

	// Title is the display title.
	Title string `json:"title"`

	// PointsToNext is how many points remain to the next tier (0 at the
	// terminal tier).
	PointsToNext int `json:"points_to_next"`

	// NextRank is the next tier name, empty at the terminal tier.
	NextRank string `json:"next_rank,omitempty"`

	// Progress is the fraction of the current tier already covered.
	Progress float64 `json:"progress"`
}

// SiteProgressDTO is one row of the per-site breakdown.
type SiteProgressDTO struct {
	// SiteID identifies the site.
	SiteID string `json:"site_id"`

	// Name is the site display name.
	Name string `json:"name"`

	// City and Era place the site in the catalog taxonomy.
	City string `json:"city"`
	Era  string `json:"era"`

	// Visited is whether the discovery key is held.
	Visited bool `json:"visited"`

	// SelfReported is whether the visit lacks geolocation proof.
	SelfReported bool `json:"self_reported"`

	// ScholarBadges is how many knowledge keys of this site are held.
	ScholarBadges int `json:"scholar_badges"`

	// ScholarBadgesTotal is how many the site offers.
	ScholarBadgesTotal int `json:"scholar_badges_total"`

	// FullyCompleted is whether the site counts toward completion
	// achievements.
	FullyCompleted bool `json:"fully_completed"`

	// Favorite is the persisted favorite flag.
	Favorite bool `json:"favorite"`

	// RevisitDaysRemaining is the whole days left before a verified
	// revisit can reward again. Zero when eligible.
	RevisitDaysRemaining int `json:"revisit_days_remaining"`
}

// GetProgressResult is the full profile read.
type GetProgressResult struct {
	// TotalPoints is the cumulative points total.
	TotalPoints int `json:"total_points"`

	// Rank is the derived rank block.
	Rank RankDTO `json:"rank"`

	// ScholarBadges is the held knowledge key count.
	ScholarBadges int `json:"scholar_badges"`

	// ExplorerBadges is the held discovery key count.
	ExplorerBadges int `json:"explorer_badges"`

	// SelfReportedSites is how many discovery keys lack proof.
	SelfReportedSites int `json:"self_reported_sites"`

	// CompletedQuizzes is the correctly answered quiz count.
	CompletedQuizzes int `json:"completed_quizzes"`

	// SitesCompleted is the fully completed site count.
	SitesCompleted int `json:"sites_completed"`

	// TotalSites is the catalog size.
	TotalSites int `json:"total_sites"`

	// AchievementsUnlocked is the unlocked achievement count.
	AchievementsUnlocked int `json:"achievements_unlocked"`

	// Favorites lists the favorite site IDs.
	Favorites []string `json:"favorites"`

	// Sites is the per-site breakdown (when requested).
	Sites []SiteProgressDTO `json:"sites,omitempty"`

	// GeneratedAt is when the result was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetProgressHandler handles the GetProgressQuery.
type GetProgressHandler struct {
	store   progress.Store
	catalog site.Catalog

	memo achievement.Memo[*GetProgressResult]
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(store progress.Store, catalog site.Catalog) *GetProgressHandler {
	return &GetProgressHandler{store: store, catalog: catalog}
}

// Handle executes the progress query.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*GetProgressResult, error) {
	// The memoized full result always carries the site breakdown; a
	// summary read just drops it before returning.
	full := h.memo.Get(h.store.Generation(), func() *GetProgressResult {
		r, err := h.compute(ctx)
		if err != nil {
			return nil
		}
		return r
	})
	if full == nil {
		h.memo.Invalidate()
		return h.compute(ctx)
	}

	out := *full
	if !q.IncludeSites {
		out.Sites = nil
	}
	return &out, nil
}

func (h *GetProgressHandler) compute(ctx context.Context) (*GetProgressResult, error) {
	sites, err := h.catalog.Sites(ctx)
	if err != nil {
		return nil, err
	}

	result := &GetProgressResult{GeneratedAt: time.Now().UTC()}
	now := result.GeneratedAt

	err = h.store.View(ctx, func(s *progress.State) error {
		result.TotalPoints = s.TotalPoints.Int()
		result.ScholarBadges = len(s.ScholarBadges)
		result.ExplorerBadges = len(s.ExplorerBadges)
		result.SelfReportedSites = len(s.SelfReportedSites)
		result.CompletedQuizzes = len(s.CompletedQuizzes)
		result.AchievementsUnlocked = len(s.Achievements)
		result.TotalSites = len(sites)
		result.SitesCompleted = achievement.FullyCompletedCount(s, sites)

		current := rank.RankFor(s.TotalPoints)
		tier := rank.TierFor(s.TotalPoints)
		result.Rank = RankDTO{
			Rank:         current.String(),
			Title:        tier.Title,
			PointsToNext: rank.PointsToNext(current, s.TotalPoints),
			Progress:     rank.ProgressFraction(current, s.TotalPoints),
		}
		if next, ok := rank.Next(current); ok {
			result.Rank.NextRank = next.Rank.String()
		}

		result.Favorites = make([]string, 0, len(s.FavoriteSites))
		for id := range s.FavoriteSites {
			result.Favorites = append(result.Favorites, id.String())
		}

		result.Sites = make([]SiteProgressDTO, 0, len(sites))
		for _, st := range sites {
			dto := SiteProgressDTO{
				SiteID:             st.ID.String(),
				Name:               st.Name,
				City:               string(st.City),
				Era:                string(st.Era),
				Visited:            s.HasExplorerBadge(st.ID),
				SelfReported:       s.IsSelfReported(st.ID),
				ScholarBadgesTotal: len(st.SubLocations),
				Favorite:           s.FavoriteSites[st.ID],
			}
			for _, sub := range st.SubLocations {
				if s.HasScholarBadge(sub.ID) {
					dto.ScholarBadges++
				}
			}
			dto.FullyCompleted = dto.Visited && dto.ScholarBadges == dto.ScholarBadgesTotal
			if s.IsFullyVerified(st.ID) {
				dto.RevisitDaysRemaining = progress.CooldownDaysRemaining(s.RevisitCooldownRemaining(st.ID, now))
			}
			result.Sites = append(result.Sites, dto)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
