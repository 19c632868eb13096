// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Every state change in the rewards engine is announced
// through one of these so display layers can react without polling.
const (
	// Badge events
	EventScholarBadgeAwarded EventType = "progress.scholar_badge_awarded"
	EventVisitVerified       EventType = "progress.visit_verified"
	EventVisitSelfReported   EventType = "progress.visit_self_reported"
	EventVisitUpgraded       EventType = "progress.visit_upgraded"

	// Content events
	EventPlaceDiscovered EventType = "progress.place_discovered"
	EventQuizCompleted   EventType = "progress.quiz_completed"

	// Achievement events
	EventAchievementUnlocked EventType = "progress.achievement_unlocked"

	// Lifecycle events
	EventFavoriteToggled EventType = "progress.favorite_toggled"
	EventProgressReset   EventType = "progress.reset"

	// System events
	EventCatalogSynced EventType = "system.catalog_synced"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// ScholarBadgeAwardedEvent is emitted when a knowledge key is earned.
type ScholarBadgeAwardedEvent struct {
	BaseEvent
	SubLocationID SubLocationID `json:"sub_location_id"`
	PointsEarned  int           `json:"points_earned"`
}

// Payload implements Event interface.
func (e ScholarBadgeAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"sub_location_id": e.SubLocationID.String(),
		"points_earned":   e.PointsEarned,
	}
}

// VisitVerifiedEvent is emitted when a site visit passes geolocation proof.
type VisitVerifiedEvent struct {
	BaseEvent
	SiteID       SiteID  `json:"site_id"`
	DistanceKm   float64 `json:"distance_km"`
	PointsEarned int     `json:"points_earned"`
}

// Payload implements Event interface.
func (e VisitVerifiedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"site_id":       e.SiteID.String(),
		"distance_km":   e.DistanceKm,
		"points_earned": e.PointsEarned,
	}
}

// VisitSelfReportedEvent is emitted when a visit is recorded without
// geolocation proof.
type VisitSelfReportedEvent struct {
	BaseEvent
	SiteID       SiteID `json:"site_id"`
	PointsEarned int    `json:"points_earned"`
}

// Payload implements Event interface.
func (e VisitSelfReportedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"site_id":       e.SiteID.String(),
		"points_earned": e.PointsEarned,
	}
}

// VisitUpgradedEvent is emitted when a self-reported visit gains
// geolocation proof.
type VisitUpgradedEvent struct {
	BaseEvent
	SiteID       SiteID  `json:"site_id"`
	DistanceKm   float64 `json:"distance_km"`
	PointsEarned int     `json:"points_earned"`
}

// Payload implements Event interface.
func (e VisitUpgradedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"site_id":       e.SiteID.String(),
		"distance_km":   e.DistanceKm,
		"points_earned": e.PointsEarned,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Content Events
// ═══════════════════════════════════════════════════════════════════════════

// PlaceDiscoveredEvent is emitted when a content place earns discovery points.
type PlaceDiscoveredEvent struct {
	BaseEvent
	PlaceID      PlaceID `json:"place_id"`
	PointsEarned int     `json:"points_earned"`
}

// Payload implements Event interface.
func (e PlaceDiscoveredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"place_id":      e.PlaceID.String(),
		"points_earned": e.PointsEarned,
	}
}

// QuizCompletedEvent is emitted when a quiz is answered correctly for the
// first time.
type QuizCompletedEvent struct {
	BaseEvent
	QuizID       QuizID `json:"quiz_id"`
	PointsEarned int    `json:"points_earned"`
}

// Payload implements Event interface.
func (e QuizCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"quiz_id":       e.QuizID.String(),
		"points_earned": e.PointsEarned,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted exactly once per achievement unlock.
type AchievementUnlockedEvent struct {
	BaseEvent
	AchievementIDValue AchievementID `json:"achievement_id"`
	Name               string        `json:"name"`
	RewardPoints       int           `json:"reward_points"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementIDValue.String(),
		"name":           e.Name,
		"reward_points":  e.RewardPoints,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Lifecycle Events
// ═══════════════════════════════════════════════════════════════════════════

// FavoriteToggledEvent is emitted when a site is added to or removed from
// favorites.
type FavoriteToggledEvent struct {
	BaseEvent
	SiteID   SiteID `json:"site_id"`
	Favorite bool   `json:"favorite"`
}

// Payload implements Event interface.
func (e FavoriteToggledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"site_id":  e.SiteID.String(),
		"favorite": e.Favorite,
	}
}

// ProgressResetEvent is emitted when the whole progress state is cleared.
type ProgressResetEvent struct {
	BaseEvent
	PointsDiscarded int `json:"points_discarded"`
}

// Payload implements Event interface.
func (e ProgressResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"points_discarded": e.PointsDiscarded,
	}
}

// CatalogSyncedEvent is emitted by the sync job after a catalog refresh.
type CatalogSyncedEvent struct {
	BaseEvent
	SiteCount int    `json:"site_count"`
	Version   string `json:"version"`
}

// Payload implements Event interface.
func (e CatalogSyncedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"site_count": e.SiteCount,
		"version":    e.Version,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NoopPublisher discards all events. Useful for tests and for running the
// engine without any subscriber wired.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(Event) error { return nil }
