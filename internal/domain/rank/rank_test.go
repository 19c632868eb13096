package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

func TestRankFor_TierBoundaries(t *testing.T) {
	assert.Equal(t, Wanderer, RankFor(0))
	assert.Equal(t, Wanderer, RankFor(50))
	assert.Equal(t, Traveler, RankFor(51))
	assert.Equal(t, Traveler, RankFor(150))
	assert.Equal(t, Explorer, RankFor(151))
	assert.Equal(t, Pharaoh, RankFor(2001))
	assert.Equal(t, Pharaoh, RankFor(shared.MaxPoints))
}

func TestPointsToNext(t *testing.T) {
	// A traveler with 55 points needs 96 more to reach explorer at 151.
	assert.Equal(t, Traveler, RankFor(55))
	assert.Equal(t, 96, PointsToNext(Traveler, 55))

	// Entry of a tier.
	assert.Equal(t, 100, PointsToNext(Traveler, 51))

	// Terminal tier has nothing above it.
	assert.Equal(t, 0, PointsToNext(Pharaoh, 5000))
}

func TestNext(t *testing.T) {
	next, ok := Next(Wanderer)
	assert.True(t, ok)
	assert.Equal(t, Traveler, next.Rank)
	assert.Equal(t, 51, next.MinPoints)

	_, ok = Next(Pharaoh)
	assert.False(t, ok)
}

func TestProgressFraction(t *testing.T) {
	// Start of a tier.
	assert.InDelta(t, 0.0, ProgressFraction(Traveler, 51), 0.001)

	// Halfway through traveler (span 51..150 = 100 points).
	assert.InDelta(t, 0.5, ProgressFraction(Traveler, 101), 0.001)

	// Terminal tier always reports complete.
	assert.Equal(t, 1.0, ProgressFraction(Pharaoh, 2001))

	// Fraction stays within [0,1] even for out-of-tier totals.
	assert.Equal(t, 0.0, ProgressFraction(Traveler, 10))
	assert.Equal(t, 1.0, ProgressFraction(Traveler, 9999))
}

func TestTiersAreContiguous(t *testing.T) {
	table := Tiers()
	for i := 1; i < len(table); i++ {
		assert.Equal(t, table[i-1].MaxPoints+1, table[i].MinPoints,
			"tier %s must start right above %s", table[i].Rank, table[i-1].Rank)
	}
	assert.Equal(t, Unbounded, table[len(table)-1].MaxPoints)
}
