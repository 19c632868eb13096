// Package achievement evaluates the static achievement catalog against the
// user's progress, unlocking each achievement exactly once and caching the
// expensive catalog-wide aggregates.
package achievement

import (
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Definitions
// ═══════════════════════════════════════════════════════════════════════════

// Category groups achievements for display.
type Category string

const (
	CategoryExploration Category = "exploration"
	CategoryKnowledge   Category = "knowledge"
	CategoryMastery     Category = "mastery"
)

// RequirementKind selects how an achievement's requirement is evaluated.
// Counter kinds compare a progress counter against Target; catalog kinds
// are predicates over the full site catalog and ignore Target.
type RequirementKind string

const (
	// RequireSitesCompleted - Target sites fully completed (explorer
	// badge plus every scholar badge of the site).
	RequireSitesCompleted RequirementKind = "sites_completed"

	// RequireScholarBadges - Target scholar badges earned.
	RequireScholarBadges RequirementKind = "scholar_badges"

	// RequireExplorerBadges - Target explorer badges earned.
	RequireExplorerBadges RequirementKind = "explorer_badges"

	// RequireQuizzes - Target quizzes answered correctly.
	RequireQuizzes RequirementKind = "quizzes_completed"

	// RequireAllSites - every site in the catalog fully completed.
	RequireAllSites RequirementKind = "all_sites"

	// RequireCityComplete - at least one city fully completed.
	RequireCityComplete RequirementKind = "city_complete"

	// RequireEraComplete - at least one era fully completed.
	RequireEraComplete RequirementKind = "era_complete"

	// RequireFullCompletion - 100% of the catalog completed.
	RequireFullCompletion RequirementKind = "full_completion"
)

// Requirement is a tagged union: Kind selects the predicate, Target carries
// the threshold for counter kinds and is zero for catalog kinds.
type Requirement struct {
	Kind   RequirementKind `yaml:"kind" json:"kind"`
	Target int             `yaml:"target,omitempty" json:"target,omitempty"`
}

// IsCounter reports whether the requirement is a simple count threshold.
func (r Requirement) IsCounter() bool {
	switch r.Kind {
	case RequireSitesCompleted, RequireScholarBadges, RequireExplorerBadges, RequireQuizzes:
		return true
	default:
		return false
	}
}

// Validate checks the requirement is well-formed.
func (r Requirement) Validate() error {
	switch r.Kind {
	case RequireSitesCompleted, RequireScholarBadges, RequireExplorerBadges, RequireQuizzes:
		if r.Target <= 0 {
			return shared.ErrInvalidRequirement
		}
	case RequireAllSites, RequireCityComplete, RequireEraComplete, RequireFullCompletion:
		if r.Target != 0 {
			return shared.ErrInvalidRequirement
		}
	default:
		return shared.ErrInvalidRequirement
	}
	return nil
}

// Achievement is one row of the static catalog. The catalog is never
// mutated at runtime; unlock state lives in progress.State.
type Achievement struct {
	// ID is string-stable across releases: it is what gets persisted.
	ID shared.AchievementID `yaml:"id" json:"id"`

	// Name is the display name.
	Name string `yaml:"name" json:"name"`

	// Description explains how to earn it.
	Description string `yaml:"description" json:"description"`

	// Category groups it for display.
	Category Category `yaml:"category" json:"category"`

	// Requirement selects the unlock predicate.
	Requirement Requirement `yaml:"requirement" json:"requirement"`

	// RewardPoints is paid exactly once, on unlock.
	RewardPoints int `yaml:"reward_points" json:"reward_points"`
}

// DefaultDefinitions returns the built-in achievement catalog.
func DefaultDefinitions() []Achievement {
	return []Achievement{
		{"first_discovery", "First Discovery", "Fully complete your first site", CategoryExploration,
			Requirement{Kind: RequireSitesCompleted, Target: 1}, 100},
		{"seasoned_explorer", "Seasoned Explorer", "Fully complete three sites", CategoryExploration,
			Requirement{Kind: RequireSitesCompleted, Target: 3}, 250},
		{"first_footsteps", "First Footsteps", "Earn your first discovery key", CategoryExploration,
			Requirement{Kind: RequireExplorerBadges, Target: 1}, 50},
		{"desert_wanderer", "Desert Wanderer", "Earn five discovery keys", CategoryExploration,
			Requirement{Kind: RequireExplorerBadges, Target: 5}, 200},
		{"curious_mind", "Curious Mind", "Earn ten knowledge keys", CategoryKnowledge,
			Requirement{Kind: RequireScholarBadges, Target: 10}, 100},
		{"scholar_of_egypt", "Scholar of Egypt", "Earn twenty-five knowledge keys", CategoryKnowledge,
			Requirement{Kind: RequireScholarBadges, Target: 25}, 300},
		{"quiz_novice", "Quiz Novice", "Answer five quizzes correctly", CategoryKnowledge,
			Requirement{Kind: RequireQuizzes, Target: 5}, 50},
		{"quiz_master", "Quiz Master", "Answer twenty quizzes correctly", CategoryKnowledge,
			Requirement{Kind: RequireQuizzes, Target: 20}, 200},
		{"city_keeper", "City Keeper", "Fully complete every site of one city", CategoryMastery,
			Requirement{Kind: RequireCityComplete}, 300},
		{"era_guardian", "Era Guardian", "Fully complete every site of one era", CategoryMastery,
			Requirement{Kind: RequireEraComplete}, 300},
		{"master_of_sites", "Master of Sites", "Fully complete every site", CategoryMastery,
			Requirement{Kind: RequireAllSites}, 500},
		{"pharaohs_legacy", "Pharaoh's Legacy", "Reach 100% completion", CategoryMastery,
			Requirement{Kind: RequireFullCompletion}, 1000},
	}
}
