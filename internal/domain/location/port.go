// Package location defines the positioning port the rewards engine verifies
// visits through. Implementations live in infrastructure/location.
package location

import (
	"context"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// Freshness bounds for a usable position fix. A stale or coarse fix is
// treated the same as no fix at all.
const (
	MaxFixAge      = 30 * time.Second
	MaxAccuracyMtr = 100.0
)

// AuthorizationStatus is the user's standing location permission.
type AuthorizationStatus string

const (
	AuthorizationUndetermined AuthorizationStatus = "undetermined"
	AuthorizationAuthorized   AuthorizationStatus = "authorized"
	AuthorizationDenied       AuthorizationStatus = "denied"
)

// Position is one geolocation fix.
type Position struct {
	// Coordinate is the fix location.
	Coordinate shared.Coordinate

	// AccuracyMeters is the horizontal accuracy radius. Zero means the
	// source did not report accuracy and the fix is taken at face value.
	AccuracyMeters float64

	// Timestamp is when the fix was taken.
	Timestamp time.Time
}

// FreshAt reports whether the fix is recent and accurate enough to verify a
// visit at the given instant.
func (p Position) FreshAt(now time.Time) bool {
	if !p.Coordinate.IsValid() {
		return false
	}
	if now.Sub(p.Timestamp) > MaxFixAge {
		return false
	}
	if p.AccuracyMeters > MaxAccuracyMtr {
		return false
	}
	return true
}

// Port is the positioning boundary.
//
// RequestPosition resolves exactly once per call: with a fix, with
// shared.ErrLocationDenied when permission is refused, or with
// shared.ErrTimeout when no usable fix arrives within the timeout. Late
// fixes from an expired request are dropped, never delivered to a
// subsequent caller.
type Port interface {
	// Authorization returns the current permission status without
	// prompting.
	Authorization() AuthorizationStatus

	// RequestPosition blocks until a usable fix, denial, timeout, or ctx
	// cancellation.
	RequestPosition(ctx context.Context, timeout time.Duration) (*Position, error)
}
