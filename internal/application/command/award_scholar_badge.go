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
// AWARD SCHOLAR BADGE COMMAND
// Fires when the reader finishes the last story card of a sub-location.
// ══════════════════════════════════════════════════════════════════════════════

// AwardScholarBadgeCommand contains the data to award a knowledge key.
type AwardScholarBadgeCommand struct {
	// SiteID is the site that contains the sub-location.
	SiteID shared.SiteID

	// SubLocationID is the sub-location whose story content was finished.
	SubLocationID shared.SubLocationID

	// Timestamp is when the reading completed (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AwardScholarBadgeCommand) Validate() error {
	if !c.SiteID.IsValid() {
		return fmt.Errorf("award_scholar_badge: invalid site id %q", c.SiteID)
	}
	if !c.SubLocationID.IsValid() {
		return fmt.Errorf("award_scholar_badge: invalid sub-location id %q", c.SubLocationID)
	}
	return nil
}

// AwardScholarBadgeResult contains the result of a badge award.
type AwardScholarBadgeResult struct {
	// Awarded is false when the badge was already held.
	Awarded bool

	// SubLocationID is the awarded sub-location.
	SubLocationID shared.SubLocationID

	// PointsAwarded is how many points this award credited.
	PointsAwarded int

	// TotalPoints is the points total after the operation.
	TotalPoints int

	// Unlocks are the achievements this award unlocked.
	Unlocks []achievement.Unlock

	// Events contains domain events generated.
	Events []shared.Event
}

// AwardScholarBadgeHandler handles the AwardScholarBadgeCommand.
type AwardScholarBadgeHandler struct {
	store     progress.Store
	catalog   site.Catalog
	evaluator *achievement.Evaluator
	publisher shared.EventPublisher
}

// NewAwardScholarBadgeHandler creates a new AwardScholarBadgeHandler.
func NewAwardScholarBadgeHandler(
	store progress.Store,
	catalog site.Catalog,
	evaluator *achievement.Evaluator,
	publisher shared.EventPublisher,
) *AwardScholarBadgeHandler {
	return &AwardScholarBadgeHandler{
		store:     store,
		catalog:   catalog,
		evaluator: evaluator,
		publisher: publisher,
	}
}

// Handle executes the award scholar badge command.
func (h *AwardScholarBadgeHandler) Handle(ctx context.Context, cmd AwardScholarBadgeCommand) (*AwardScholarBadgeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "AwardScholarBadge", shared.ErrValidation, "validation failed", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	visited, err := h.catalog.SiteByID(ctx, cmd.SiteID)
	if err != nil {
		return nil, err
	}
	if !visited.HasSubLocation(cmd.SubLocationID) {
		return nil, shared.ErrSubLocationNotFound
	}

	result := &AwardScholarBadgeResult{SubLocationID: cmd.SubLocationID}

	var unlocks []achievement.Unlock
	err = h.store.Update(ctx, func(s *progress.State) error {
		if !s.AwardScholarBadge(cmd.SubLocationID) {
			result.TotalPoints = s.TotalPoints.Int()
			return errUnchanged
		}
		result.Awarded = true
		result.PointsAwarded = progress.PointsScholarBadge

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

	event := shared.ScholarBadgeAwardedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventScholarBadgeAwarded, cmd.SubLocationID.String()),
		SubLocationID: cmd.SubLocationID,
		PointsEarned:  result.PointsAwarded,
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
