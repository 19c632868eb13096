package progress

// ══════════════════════════════════════════════════════════════════════════════
// VISIT OUTCOMES
// Visit operations never fail with an error for business reasons; they
// return one of these outcome values instead.
// ══════════════════════════════════════════════════════════════════════════════

// VisitStatus is the outcome kind of a visit operation.
type VisitStatus string

const (
	// VisitVerified - first-time or post-cooldown geolocation-verified
	// visit; full reward paid.
	VisitVerified VisitStatus = "verified"

	// VisitUpgraded - a self-reported visit gained geolocation proof;
	// only the upgrade difference paid.
	VisitUpgraded VisitStatus = "upgraded"

	// VisitSelfReported - visit recorded without geolocation proof.
	VisitSelfReported VisitStatus = "self_reported"

	// VisitAlreadySelfReported - the site already has an unproven visit;
	// the caller should offer the geolocation upgrade instead.
	VisitAlreadySelfReported VisitStatus = "already_self_reported"

	// VisitBlocked - the revisit cooldown is still active; no reward.
	VisitBlocked VisitStatus = "blocked"

	// VisitNoLocation - positioning was unavailable, denied, or timed
	// out; the caller should offer the self-report path.
	VisitNoLocation VisitStatus = "no_location"

	// VisitTooFar - the position fix is outside the verification radius.
	VisitTooFar VisitStatus = "too_far"
)

// VisitOutcome is the result of a verify or self-report operation.
type VisitOutcome struct {
	// Status is the outcome kind.
	Status VisitStatus

	// PointsAwarded is how many points this operation credited.
	PointsAwarded int

	// DaysRemaining is the whole days left on the cooldown, set for
	// VisitBlocked.
	DaysRemaining int

	// DistanceKm is the measured distance to the site, set for
	// VisitTooFar and informational for verified outcomes.
	DistanceKm float64
}

// Changed reports whether the outcome mutated progress state.
func (o VisitOutcome) Changed() bool {
	switch o.Status {
	case VisitVerified, VisitUpgraded, VisitSelfReported:
		return true
	default:
		return false
	}
}
