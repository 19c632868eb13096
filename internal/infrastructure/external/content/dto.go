// Package content implements the content pipeline API client. The pipeline
// owns the heritage site catalog; this package fetches the published envelope
// and maps it into domain sites for the sync job.
package content

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENVELOPE DTOs
// The wire format is the pipeline's published catalog envelope: a version
// string, a last-updated stamp, and the full site list. No pagination - the
// catalog is small enough to ship whole.
// ══════════════════════════════════════════════════════════════════════════════

// EnvelopeDTO is the root of the published catalog document.
type EnvelopeDTO struct {
	// Version is the catalog version string (e.g. "2026.08.1").
	Version string `json:"version"`

	// LastUpdated is when the pipeline last regenerated the catalog.
	LastUpdated time.Time `json:"lastUpdated"`

	// Sites is the full site list.
	Sites []SiteDTO `json:"sites"`
}

// SiteDTO represents a heritage site as published by the pipeline.
type SiteDTO struct {
	// ID is the site slug (e.g. "great_pyramid").
	ID string `json:"id"`

	// Name is the English display name.
	Name string `json:"name"`

	// ArabicName is the Arabic display name.
	ArabicName string `json:"arabicName,omitempty"`

	// Era is the historical period slug.
	Era string `json:"era"`

	// City is the city or region slug.
	City string `json:"city"`

	// Latitude and Longitude are the site's geographic position.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// SubLocations are the site's knowledge units, in display order.
	SubLocations []SubLocationDTO `json:"subLocations"`
}

// SubLocationDTO represents one knowledge unit within a site.
type SubLocationDTO struct {
	// ID is the sub-location slug (e.g. "khufu_chamber").
	ID string `json:"id"`

	// Name is the English display name.
	Name string `json:"name"`

	// ArabicName is the Arabic display name.
	ArabicName string `json:"arabicName,omitempty"`

	// StoryCardCount is how many story cards the sub-location carries.
	StoryCardCount int `json:"storyCardCount"`
}

// APIErrorDTO represents an error response from the pipeline API.
type APIErrorDTO struct {
	// Code is the error code.
	Code string `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
