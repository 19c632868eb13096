// Package rank maps cumulative reward points to named traveler tiers.
// The calculator is a pure function over an ordered tier table: it holds no
// state and never fails.
package rank

import (
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// Rank is a named tier derived purely from cumulative points.
type Rank string

// Tier names, ordered from entry tier to terminal tier.
const (
	Wanderer   Rank = "wanderer"
	Traveler   Rank = "traveler"
	Explorer   Rank = "explorer"
	Adventurer Rank = "adventurer"
	Pathfinder Rank = "pathfinder"
	Pharaoh    Rank = "pharaoh"
)

// String returns the string representation.
func (r Rank) String() string {
	return string(r)
}

// Tier describes one row of the rank table.
type Tier struct {
	// Rank is the tier name.
	Rank Rank

	// MinPoints is the inclusive lower bound of the tier.
	MinPoints int

	// MaxPoints is the inclusive upper bound, or -1 for the unbounded
	// terminal tier.
	MaxPoints int

	// Title is the display title shown in the profile header.
	Title string
}

// Unbounded marks the terminal tier's upper limit.
const Unbounded = -1

// tiers is the ordered tier table. Bounds are contiguous: each tier starts
// one point above the previous tier's MaxPoints.
var tiers = []Tier{
	{Wanderer, 0, 50, "Wanderer"},
	{Traveler, 51, 150, "Traveler"},
	{Explorer, 151, 400, "Explorer"},
	{Adventurer, 401, 900, "Adventurer"},
	{Pathfinder, 901, 2000, "Pathfinder"},
	{Pharaoh, 2001, Unbounded, "Pharaoh"},
}

// Tiers returns a copy of the ordered tier table.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// RankFor returns the rank tier for a cumulative points total.
// Negative totals clamp to the entry tier.
func RankFor(points shared.Points) Rank {
	p := points.Int()
	for _, t := range tiers {
		if p >= t.MinPoints && (t.MaxPoints == Unbounded || p <= t.MaxPoints) {
			return t.Rank
		}
	}
	return tiers[0].Rank
}

// TierFor returns the full tier row for a cumulative points total.
func TierFor(points shared.Points) Tier {
	p := points.Int()
	for _, t := range tiers {
		if p >= t.MinPoints && (t.MaxPoints == Unbounded || p <= t.MaxPoints) {
			return t
		}
	}
	return tiers[0]
}

// Next returns the tier that follows the given rank, or false for the
// terminal tier.
func Next(current Rank) (Tier, bool) {
	for i, t := range tiers {
		if t.Rank == current {
			if i+1 < len(tiers) {
				return tiers[i+1], true
			}
			return Tier{}, false
		}
	}
	return Tier{}, false
}

// PointsToNext returns how many points are still needed to reach the next
// tier. The terminal tier returns 0.
func PointsToNext(current Rank, points shared.Points) int {
	next, ok := Next(current)
	if !ok {
		return 0
	}
	remaining := next.MinPoints - points.Int()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ProgressFraction returns progress through the current tier as a fraction
// in [0,1]. The terminal tier always reports 1.0.
func ProgressFraction(current Rank, points shared.Points) float64 {
	var tier Tier
	found := false
	for _, t := range tiers {
		if t.Rank == current {
			tier = t
			found = true
			break
		}
	}
	if !found || tier.MaxPoints == Unbounded {
		return 1.0
	}

	span := tier.MaxPoints - tier.MinPoints + 1
	into := points.Int() - tier.MinPoints
	if into < 0 {
		return 0
	}
	if into >= span {
		return 1.0
	}
	return float64(into) / float64(span)
}
