package query

import (
	"context"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsQuery contains the parameters for an achievements read.
type GetAchievementsQuery struct {
	// Category filters to one category; empty returns everything.
	Category achievement.Category

	// UnlockedOnly drops locked achievements from the result.
	UnlockedOnly bool
}

// AchievementDTO is one achievement row with progress figures.
type AchievementDTO struct {
	// ID identifies the achievement.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Description explains how to earn it.
	Description string `json:"description"`

	// Category groups it for display.
	Category string `json:"category"`

	// RewardPoints is the unlock reward.
	RewardPoints int `json:"reward_points"`

	// Unlocked is whether it is held.
	Unlocked bool `json:"unlocked"`

	// UnlockedAt is the unlock time (unlocked only).
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`

	// Current and Required are the progress figures toward the unlock.
	Current  int `json:"current"`
	Required int `json:"required"`
}

// GetAchievementsResult contains the achievements read.
type GetAchievementsResult struct {
	// Achievements lists the rows in catalog order.
	Achievements []AchievementDTO `json:"achievements"`

	// UnlockedCount is how many are held.
	UnlockedCount int `json:"unlocked_count"`

	// TotalCount is the catalog size before filtering.
	TotalCount int `json:"total_count"`

	// NextToUnlock hints at the closest locked achievement.
	NextToUnlock *AchievementDTO `json:"next_to_unlock,omitempty"`

	// GeneratedAt is when the result was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetAchievementsHandler handles the GetAchievementsQuery.
type GetAchievementsHandler struct {
	store     progress.Store
	catalog   site.Catalog
	evaluator *achievement.Evaluator

	memo achievement.Memo[[]achievement.Progress]
}

// NewGetAchievementsHandler creates a new GetAchievementsHandler.
func NewGetAchievementsHandler(store progress.Store, catalog site.Catalog, evaluator *achievement.Evaluator) *GetAchievementsHandler {
	return &GetAchievementsHandler{store: store, catalog: catalog, evaluator: evaluator}
}

// Handle executes the achievements query.
func (h *GetAchievementsHandler) Handle(ctx context.Context, q GetAchievementsQuery) (*GetAchievementsResult, error) {
	sites, err := h.catalog.Sites(ctx)
	if err != nil {
		return nil, err
	}

	rows := h.memo.Get(h.store.Generation(), func() []achievement.Progress {
		var out []achievement.Progress
		_ = h.store.View(ctx, func(s *progress.State) error {
			out = h.evaluator.ProgressFor(s, sites)
			return nil
		})
		return out
	})

	result := &GetAchievementsResult{
		TotalCount:  len(rows),
		GeneratedAt: time.Now().UTC(),
	}

	for _, p := range rows {
		if p.Unlocked {
			result.UnlockedCount++
		}
		if q.Category != "" && p.Achievement.Category != q.Category {
			continue
		}
		if q.UnlockedOnly && !p.Unlocked {
			continue
		}
		result.Achievements = append(result.Achievements, toAchievementDTO(p))
	}

	if next := achievement.ClosestToUnlock(rows); next != nil {
		dto := toAchievementDTO(*next)
		result.NextToUnlock = &dto
	}

	return result, nil
}

func toAchievementDTO(p achievement.Progress) AchievementDTO {
	dto := AchievementDTO{
		ID:           p.Achievement.ID.String(),
		Name:         p.Achievement.Name,
		Description:  p.Achievement.Description,
		Category:     string(p.Achievement.Category),
		RewardPoints: p.Achievement.RewardPoints,
		Unlocked:     p.Unlocked,
		Current:      p.Current,
		Required:     p.Required,
	}
	if p.Unlocked {
		at := p.UnlockedAt
		dto.UnlockedAt = &at
	}
	return dto
}
