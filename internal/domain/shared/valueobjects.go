// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Content identifiers are lowercase snake_case slugs assigned by the content
// pipeline (e.g. "giza", "valley_kings", "khufu_chamber"). They are stable
// across content releases.
var slugRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

// SiteID identifies a heritage site in the catalog.
type SiteID string

// IsValid checks if the site ID has the expected slug format.
func (s SiteID) IsValid() bool {
	return slugRegex.MatchString(string(s))
}

// String returns the string representation.
func (s SiteID) String() string {
	return string(s)
}

// NewSiteID creates a new SiteID with validation.
func NewSiteID(id string) (SiteID, error) {
	sid := SiteID(strings.ToLower(strings.TrimSpace(id)))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewSiteID", ErrInvalidID, "invalid site ID format")
	}
	return sid, nil
}

// SubLocationID identifies a sub-location (one knowledge unit) within a site.
type SubLocationID string

// IsValid checks if the sub-location ID has the expected slug format.
func (s SubLocationID) IsValid() bool {
	return slugRegex.MatchString(string(s))
}

// String returns the string representation.
func (s SubLocationID) String() string {
	return string(s)
}

// NewSubLocationID creates a new SubLocationID with validation.
func NewSubLocationID(id string) (SubLocationID, error) {
	sid := SubLocationID(strings.ToLower(strings.TrimSpace(id)))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewSubLocationID", ErrInvalidID, "invalid sub-location ID format")
	}
	return sid, nil
}

// PlaceID identifies a content place for discovery rewards. Places are a
// superset of sites: any piece of content the reader can "discover".
type PlaceID string

// IsValid checks if the place ID has the expected slug format.
func (p PlaceID) IsValid() bool {
	return slugRegex.MatchString(string(p))
}

// String returns the string representation.
func (p PlaceID) String() string {
	return string(p)
}

// QuizID identifies a quiz question. The content pipeline derives quiz IDs
// from story card IDs as "q_<cardID>".
type QuizID string

var quizIDRegex = regexp.MustCompile(`^q_[a-z][a-z0-9_]{0,61}$`)

// IsValid checks if the quiz ID has the expected format.
func (q QuizID) IsValid() bool {
	return quizIDRegex.MatchString(string(q))
}

// String returns the string representation.
func (q QuizID) String() string {
	return string(q)
}

// AchievementID identifies an achievement. Achievement IDs are string-stable
// across releases because they are persisted in the unlock set.
type AchievementID string

// IsValid checks if the achievement ID has the expected slug format.
func (a AchievementID) IsValid() bool {
	return slugRegex.MatchString(string(a))
}

// String returns the string representation.
func (a AchievementID) String() string {
	return string(a)
}

// ═══════════════════════════════════════════════════════════════════════════
// Points Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Points represents reward points accumulated by the user.
// The total is monotonically non-decreasing except on an explicit reset.
type Points int

const (
	// MinPoints is the floor for a points total.
	MinPoints Points = 0

	// MaxPoints caps the total to guard against overflow from bad data.
	MaxPoints Points = 10000000
)

// IsValid checks if the points value is within valid range.
func (p Points) IsValid() bool {
	return p >= MinPoints && p <= MaxPoints
}

// Int returns the underlying int value.
func (p Points) Int() int {
	return int(p)
}

// Add adds points and returns the result, capped at MaxPoints.
// Negative amounts are ignored: a total never decreases through Add.
func (p Points) Add(amount int) Points {
	if amount <= 0 {
		return p
	}
	result := Points(int(p) + amount)
	if result > MaxPoints {
		return MaxPoints
	}
	return result
}

// NewPoints creates a new Points value with validation.
func NewPoints(amount int) (Points, error) {
	if amount < int(MinPoints) {
		return 0, NewDomainError("shared", "NewPoints", ErrNegativeValue, "points cannot be negative")
	}
	if amount > int(MaxPoints) {
		return MaxPoints, nil
	}
	return Points(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Coordinate Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Coordinate is a WGS84 geographic coordinate.
type Coordinate struct {
	// Latitude in degrees, -90..90.
	Latitude float64 `json:"latitude"`

	// Longitude in degrees, -180..180.
	Longitude float64 `json:"longitude"`
}

// IsValid checks if the coordinate is within valid bounds and not the
// null island placeholder the content pipeline emits for missing data.
func (c Coordinate) IsValid() bool {
	if c.Latitude == 0 && c.Longitude == 0 {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// String returns a "lat,lon" representation.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// earthRadiusMeters is the mean earth radius used for great-circle distance.
const earthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance to another coordinate
// using the haversine formula.
func (c Coordinate) DistanceMeters(other Coordinate) float64 {
	lat1 := c.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - c.Latitude) * math.Pi / 180
	dLon := (other.Longitude - c.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceKm returns the great-circle distance in kilometers.
func (c Coordinate) DistanceKm(other Coordinate) float64 {
	return c.DistanceMeters(other) / 1000
}

// NewCoordinate creates a new Coordinate with validation.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lon}
	if !c.IsValid() {
		return Coordinate{}, NewDomainError("shared", "NewCoordinate", ErrValueOutOfRange, "coordinate out of bounds")
	}
	return c, nil
}
