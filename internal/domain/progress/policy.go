// Package progress owns the user's persisted reward state and the rules
// that mutate it: badge awards, visit verification, cooldowns, and point
// credits. There is exactly one logical writer of a State at a time; the
// Store implementations in infrastructure/persistence enforce that.
package progress

import "time"

// Reward policy. These are product constants, kept in one place so the
// award rules never carry magic literals.
const (
	// VerificationRadiusMeters is how close a position fix must be to a
	// site's coordinate to count as a verified visit.
	VerificationRadiusMeters = 200.0

	// RevisitCooldown is how long a fully verified site stays ineligible
	// for another visit reward.
	RevisitCooldown = 30 * 24 * time.Hour

	// DiscoveryCooldown is how long a content place stays ineligible for
	// another discovery reward.
	DiscoveryCooldown = 30 * 24 * time.Hour
)

// Point values per rewarded action.
const (
	// PointsScholarBadge rewards finishing all story content of a
	// sub-location.
	PointsScholarBadge = 1

	// PointsVerifiedVisit rewards a first-time or post-cooldown
	// geolocation-verified visit.
	PointsVerifiedVisit = 50

	// PointsVisitUpgrade rewards upgrading a self-reported visit with
	// geolocation proof. The self-report already paid 30, so the two
	// paths converge on the same 50 total.
	PointsVisitUpgrade = 20

	// PointsSelfReportedVisit rewards a visit recorded without proof.
	PointsSelfReportedVisit = 30

	// PointsQuizCorrect rewards the first correct answer to a quiz.
	PointsQuizCorrect = 10

	// PointsPlaceDiscovery rewards discovering (or re-discovering after
	// the cooldown) a content place.
	PointsPlaceDiscovery = 1
)

// CooldownDaysRemaining converts a remaining cooldown duration into the
// whole number of days shown to the user, rounding up so "a few hours
// left" still reads as one day.
func CooldownDaysRemaining(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
