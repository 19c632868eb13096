package command

import (
	"context"
	"errors"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/notification"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET PROGRESS COMMAND
// Destructive: wipes every point, badge, achievement, and favorite. Guarded
// by an explicit confirmation flag and an admin token at the HTTP layer.
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgressCommand contains the data to reset all progress.
type ResetProgressCommand struct {
	// Confirm must be true; a bare reset request is rejected.
	Confirm bool

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ResetProgressCommand) Validate() error {
	if !c.Confirm {
		return errors.New("reset_progress: confirmation required")
	}
	return nil
}

// ResetProgressResult contains the result of a progress reset.
type ResetProgressResult struct {
	// PointsDiscarded is the points total that was wiped.
	PointsDiscarded int
}

// ResetProgressHandler handles the ResetProgressCommand.
type ResetProgressHandler struct {
	store     progress.Store
	feed      *notification.Feed
	publisher shared.EventPublisher
}

// NewResetProgressHandler creates a new ResetProgressHandler. feed may be
// nil when no notification feed is wired.
func NewResetProgressHandler(store progress.Store, feed *notification.Feed, publisher shared.EventPublisher) *ResetProgressHandler {
	return &ResetProgressHandler{store: store, feed: feed, publisher: publisher}
}

// Handle executes the reset progress command.
func (h *ResetProgressHandler) Handle(ctx context.Context, cmd ResetProgressCommand) (*ResetProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "ResetProgress", shared.ErrValidation, "validation failed", err)
	}

	result := &ResetProgressResult{}
	_ = h.store.View(ctx, func(s *progress.State) error {
		result.PointsDiscarded = s.TotalPoints.Int()
		return nil
	})

	if err := h.store.Reset(ctx); err != nil {
		return nil, err
	}
	if h.feed != nil {
		h.feed.Clear()
	}

	event := shared.ProgressResetEvent{
		BaseEvent:       shared.NewBaseEvent(shared.EventProgressReset, "progress"),
		PointsDiscarded: result.PointsDiscarded,
	}
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.publisher.Publish(event)

	return result, nil
}
