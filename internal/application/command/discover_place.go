package command

import (
	"context"
	"fmt"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISCOVER PLACE COMMAND
// Small engagement reward for opening a content place for the first time,
// re-earnable after the discovery cooldown.
// ══════════════════════════════════════════════════════════════════════════════

// DiscoverPlaceCommand contains the data to record a place discovery.
type DiscoverPlaceCommand struct {
	// PlaceID is the content place that was opened.
	PlaceID shared.PlaceID

	// Timestamp is when the discovery happened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c DiscoverPlaceCommand) Validate() error {
	if !c.PlaceID.IsValid() {
		return fmt.Errorf("discover_place: invalid place id %q", c.PlaceID)
	}
	return nil
}

// DiscoverPlaceResult contains the result of a place discovery.
type DiscoverPlaceResult struct {
	// Rewarded is false when the place is still in its cooldown.
	Rewarded bool

	// PlaceID is the discovered place.
	PlaceID shared.PlaceID

	// PointsAwarded is how many points this discovery credited.
	PointsAwarded int

	// DaysRemaining is the whole days left on the cooldown when Rewarded
	// is false.
	DaysRemaining int

	// TotalPoints is the points total after the operation.
	TotalPoints int

	// Unlocks are the achievements this discovery unlocked.
	Unlocks []achievement.Unlock

	// Events contains domain events generated.
	Events []shared.Event
}

// DiscoverPlaceHandler handles the DiscoverPlaceCommand.
type DiscoverPlaceHandler struct {
	store     progress.Store
	catalog   site.Catalog
	evaluator *achievement.Evaluator
	publisher shared.EventPublisher
}

// NewDiscoverPlaceHandler creates a new DiscoverPlaceHandler.
func NewDiscoverPlaceHandler(
	store progress.Store,
	catalog site.Catalog,
	evaluator *achievement.Evaluator,
	publisher shared.EventPublisher,
) *DiscoverPlaceHandler {
	return &DiscoverPlaceHandler{
		store:     store,
		catalog:   catalog,
		evaluator: evaluator,
		publisher: publisher,
	}
}

// Handle executes the discover place command.
func (h *DiscoverPlaceHandler) Handle(ctx context.Context, cmd DiscoverPlaceCommand) (*DiscoverPlaceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "DiscoverPlace", shared.ErrValidation, "validation failed", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result := &DiscoverPlaceResult{PlaceID: cmd.PlaceID}

	var unlocks []achievement.Unlock
	err := h.store.Update(ctx, func(s *progress.State) error {
		if !s.RecordPlaceDiscovery(cmd.PlaceID, now) {
			result.DaysRemaining = progress.CooldownDaysRemaining(s.DiscoveryCooldownRemaining(cmd.PlaceID, now))
			result.TotalPoints = s.TotalPoints.Int()
			return errUnchanged
		}
		result.Rewarded = true
		result.PointsAwarded = progress.PointsPlaceDiscovery

		sites, err := h.catalog.Sites(ctx)
		if err == nil {
			unlocks = h.evaluator.Evaluate(s, sites, now)
		}
		result.TotalPoints = s.TotalPoints.Int()
		return nil
	})
	if err != nil {
		if isUnchanged(err) {
			return result, nil
		}
		return nil, err
	}

	result.Unlocks = unlocks

	event := shared.PlaceDiscoveredEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventPlaceDiscovered, cmd.PlaceID.String()),
		PlaceID:      cmd.PlaceID,
		PointsEarned: result.PointsAwarded,
	}
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append([]shared.Event{event}, unlockEvents(unlocks, cmd.CorrelationID)...)
	for _, e := range result.Events {
		_ = h.publisher.Publish(e)
	}
	return result, nil
}
