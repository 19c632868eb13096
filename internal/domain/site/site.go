// Package site defines the read-only heritage site catalog consumed by the
// rewards engine. The catalog is produced by the content pipeline and
// refreshed independently of user progress.
package site

import (
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Catalog Entities
// ═══════════════════════════════════════════════════════════════════════════

// Era is the historical period a site belongs to. Values mirror the content
// pipeline's era enum.
type Era string

const (
	EraPreDynastic   Era = "preDynastic"
	EraOldKingdom    Era = "oldKingdom"
	EraMiddleKingdom Era = "middleKingdom"
	EraNewKingdom    Era = "newKingdom"
	EraLatePeriod    Era = "latePeriod"
	EraPtolemaic     Era = "ptolemaic"
	EraRoman         Era = "roman"
	EraIslamic       Era = "islamic"
	EraModern        Era = "modern"
)

// City is the city or region a site belongs to.
type City string

const (
	CityCairo      City = "cairo"
	CityGiza       City = "giza"
	CityLuxor      City = "luxor"
	CityAswan      City = "aswan"
	CityAlexandria City = "alexandria"
	CitySinai      City = "sinai"
	CityFayoum     City = "fayoum"
	CityDahab      City = "dahab"
	CityHurghada   City = "hurghada"
	CitySharm      City = "sharmElSheikh"
)

// SubLocation is one knowledge unit within a site. Reading all of its story
// content earns the scholar badge for its ID.
type SubLocation struct {
	// ID identifies the sub-location.
	ID shared.SubLocationID

	// Name is the display name.
	Name string

	// ArabicName is the Arabic display name.
	ArabicName string

	// StoryCardCount is how many story cards the sub-location carries.
	StoryCardCount int
}

// Site is a physical heritage site. The rewards engine only reads the fields
// it needs for verification and achievement evaluation; presentation data
// stays with the content layer.
type Site struct {
	// ID identifies the site.
	ID shared.SiteID

	// Name is the display name.
	Name string

	// ArabicName is the Arabic display name.
	ArabicName string

	// Era is the historical period.
	Era Era

	// City is the city or region.
	City City

	// Coordinate is the site's geographic position, used for visit
	// verification.
	Coordinate shared.Coordinate

	// SubLocations is the ordered list of knowledge units.
	SubLocations []SubLocation
}

// SubLocationIDs returns the IDs of all sub-locations in catalog order.
func (s Site) SubLocationIDs() []shared.SubLocationID {
	ids := make([]shared.SubLocationID, 0, len(s.SubLocations))
	for _, sub := range s.SubLocations {
		ids = append(ids, sub.ID)
	}
	return ids
}

// HasSubLocation reports whether the site contains the given sub-location.
func (s Site) HasSubLocation(id shared.SubLocationID) bool {
	for _, sub := range s.SubLocations {
		if sub.ID == id {
			return true
		}
	}
	return false
}
