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
// SELF-REPORT VISIT COMMAND
// The honor-system fallback when geolocation is denied or unavailable.
// Grants the discovery key at a reduced reward, upgradeable later.
// ══════════════════════════════════════════════════════════════════════════════

// SelfReportVisitCommand contains the data to self-report a visit.
type SelfReportVisitCommand struct {
	// SiteID is the site being reported.
	SiteID shared.SiteID

	// Timestamp is when the visit happened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SelfReportVisitCommand) Validate() error {
	if !c.SiteID.IsValid() {
		return fmt.Errorf("self_report_visit: invalid site id %q", c.SiteID)
	}
	return nil
}

// SelfReportVisitResult contains the result of a self-report.
type SelfReportVisitResult struct {
	// SiteID is the site that was reported.
	SiteID shared.SiteID

	// Outcome describes what happened.
	Outcome progress.VisitOutcome

	// TotalPoints is the points total after the operation.
	TotalPoints int

	// Unlocks are the achievements this report unlocked.
	Unlocks []achievement.Unlock

	// Events contains domain events generated.
	Events []shared.Event
}

// SelfReportVisitHandler handles the SelfReportVisitCommand.
type SelfReportVisitHandler struct {
	store     progress.Store
	catalog   site.Catalog
	evaluator *achievement.Evaluator
	publisher shared.EventPublisher
}

// NewSelfReportVisitHandler creates a new SelfReportVisitHandler.
func NewSelfReportVisitHandler(
	store progress.Store,
	catalog site.Catalog,
	evaluator *achievement.Evaluator,
	publisher shared.EventPublisher,
) *SelfReportVisitHandler {
	return &SelfReportVisitHandler{
		store:     store,
		catalog:   catalog,
		evaluator: evaluator,
		publisher: publisher,
	}
}

// Handle executes the self-report visit command.
func (h *SelfReportVisitHandler) Handle(ctx context.Context, cmd SelfReportVisitCommand) (*SelfReportVisitResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "SelfReportVisit", shared.ErrValidation, "validation failed", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if _, err := h.catalog.SiteByID(ctx, cmd.SiteID); err != nil {
		return nil, err
	}

	result := &SelfReportVisitResult{SiteID: cmd.SiteID}

	var unlocks []achievement.Unlock
	err := h.store.Update(ctx, func(s *progress.State) error {
		// A site that already holds an unproven report gets no second
		// self-report reward; the client should offer the upgrade path.
		if s.IsSelfReported(cmd.SiteID) {
			result.Outcome = progress.VisitOutcome{Status: progress.VisitAlreadySelfReported}
			return errUnchanged
		}

		// A verified site cannot be downgraded through self-report, and
		// its revisit reward only flows through re-verification.
		if s.IsFullyVerified(cmd.SiteID) {
			result.Outcome = progress.VisitOutcome{
				Status:        progress.VisitBlocked,
				DaysRemaining: progress.CooldownDaysRemaining(s.RevisitCooldownRemaining(cmd.SiteID, now)),
			}
			return errUnchanged
		}

		s.RecordSelfReportedVisit(cmd.SiteID, now)
		result.Outcome = progress.VisitOutcome{
			Status:        progress.VisitSelfReported,
			PointsAwarded: progress.PointsSelfReportedVisit,
		}

		sites, err := h.catalog.Sites(ctx)
		if err == nil {
			unlocks = h.evaluator.Evaluate(s, sites, now)
		}
		result.TotalPoints = s.TotalPoints.Int()
		return nil
	})
	if err != nil {
		if isUnchanged(err) {
			_ = h.store.View(ctx, func(s *progress.State) error {
				result.TotalPoints = s.TotalPoints.Int()
				return nil
			})
			return result, nil
		}
		return nil, err
	}

	result.Unlocks = unlocks

	event := shared.VisitSelfReportedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventVisitSelfReported, cmd.SiteID.String()),
		SiteID:       cmd.SiteID,
		PointsEarned: result.Outcome.PointsAwarded,
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
