// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/location"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

// ══════════════════════════════════════════════════════════════════════════════
// VERIFY VISIT COMMAND
// Geolocation-verified site visits: the main reward path of the engine.
// Handles first visits, self-report upgrades, and post-cooldown revisits.
// ══════════════════════════════════════════════════════════════════════════════

// errUnchanged aborts a store.Update whose closure decided not to mutate,
// so a rejected visit never bumps the generation counter or rewrites blobs.
var errUnchanged = errors.New("command: state unchanged")

func isUnchanged(err error) bool {
	return errors.Is(err, errUnchanged)
}

// VerifyVisitCommand contains the data to verify a site visit.
type VerifyVisitCommand struct {
	// SiteID is the site being visited.
	SiteID shared.SiteID

	// Position is an already-acquired fix. When nil the handler requests
	// one from the positioning port.
	Position *location.Position

	// Timestamp is when the visit happened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c VerifyVisitCommand) Validate() error {
	if !c.SiteID.IsValid() {
		return fmt.Errorf("verify_visit: invalid site id %q", c.SiteID)
	}
	return nil
}

// VerifyVisitResult contains the result of a visit verification.
type VerifyVisitResult struct {
	// SiteID is the site that was checked.
	SiteID shared.SiteID

	// Outcome describes what happened, including the rejection reasons.
	Outcome progress.VisitOutcome

	// TotalPoints is the points total after the operation.
	TotalPoints int

	// Unlocks are the achievements this visit unlocked.
	Unlocks []achievement.Unlock

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// VerifyVisitHandler handles the VerifyVisitCommand.
type VerifyVisitHandler struct {
	store     progress.Store
	catalog   site.Catalog
	evaluator *achievement.Evaluator
	locator   location.Port
	publisher shared.EventPublisher

	// positionTimeout bounds how long a visit request waits for a fix.
	positionTimeout time.Duration
}

// NewVerifyVisitHandler creates a new VerifyVisitHandler. locator may be nil
// when the deployment has no positioning source; every verification then
// resolves to the no-location outcome.
func NewVerifyVisitHandler(
	store progress.Store,
	catalog site.Catalog,
	evaluator *achievement.Evaluator,
	locator location.Port,
	publisher shared.EventPublisher,
	positionTimeout time.Duration,
) *VerifyVisitHandler {
	if positionTimeout <= 0 {
		positionTimeout = 15 * time.Second
	}
	return &VerifyVisitHandler{
		store:           store,
		catalog:         catalog,
		evaluator:       evaluator,
		locator:         locator,
		publisher:       publisher,
		positionTimeout: positionTimeout,
	}
}

// Handle executes the verify visit command.
func (h *VerifyVisitHandler) Handle(ctx context.Context, cmd VerifyVisitCommand) (*VerifyVisitResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "VerifyVisit", shared.ErrValidation, "validation failed", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	visited, err := h.catalog.SiteByID(ctx, cmd.SiteID)
	if err != nil {
		return nil, err
	}

	result := &VerifyVisitResult{SiteID: cmd.SiteID}

	// A cooldown-blocked re-verification can never succeed, so it is
	// rejected before spending the position timeout waiting for a fix.
	if h.cooldownBlocked(ctx, cmd.SiteID, now, result) {
		return result, nil
	}

	pos := h.resolvePosition(ctx, cmd, now)
	if pos == nil {
		result.Outcome = progress.VisitOutcome{Status: progress.VisitNoLocation}
		h.fillTotals(ctx, result)
		return result, nil
	}

	distanceKm := pos.Coordinate.DistanceKm(visited.Coordinate)

	var unlocks []achievement.Unlock
	err = h.store.Update(ctx, func(s *progress.State) error {
		// A fully verified site is locked behind the revisit cooldown;
		// a pending self-report can be upgraded at any time.
		if s.IsFullyVerified(cmd.SiteID) {
			if remaining := s.RevisitCooldownRemaining(cmd.SiteID, now); remaining > 0 {
				result.Outcome = progress.VisitOutcome{
					Status:        progress.VisitBlocked,
					DaysRemaining: progress.CooldownDaysRemaining(remaining),
				}
				return errUnchanged
			}
		}

		if distanceKm*1000 > progress.VerificationRadiusMeters {
			result.Outcome = progress.VisitOutcome{
				Status:     progress.VisitTooFar,
				DistanceKm: distanceKm,
			}
			return errUnchanged
		}

		if s.IsSelfReported(cmd.SiteID) {
			s.UpgradeSelfReportedVisit(cmd.SiteID, now)
			result.Outcome = progress.VisitOutcome{
				Status:        progress.VisitUpgraded,
				PointsAwarded: progress.PointsVisitUpgrade,
				DistanceKm:    distanceKm,
			}
		} else {
			s.RecordVerifiedVisit(cmd.SiteID, now)
			result.Outcome = progress.VisitOutcome{
				Status:        progress.VisitVerified,
				PointsAwarded: progress.PointsVerifiedVisit,
				DistanceKm:    distanceKm,
			}
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
			h.fillTotals(ctx, result)
			return result, nil
		}
		return nil, err
	}

	result.Unlocks = unlocks
	result.Events = h.buildEvents(cmd, result, unlocks)
	for _, event := range result.Events {
		_ = h.publisher.Publish(event)
	}
	return result, nil
}

// cooldownBlocked fills result and reports true when the site is fully
// verified and still inside the revisit cooldown. The Update closure
// re-checks under the write lock; this read only short-circuits the
// position lookup.
func (h *VerifyVisitHandler) cooldownBlocked(ctx context.Context, id shared.SiteID, now time.Time, result *VerifyVisitResult) bool {
	blocked := false
	_ = h.store.View(ctx, func(s *progress.State) error {
		if !s.IsFullyVerified(id) {
			return nil
		}
		if remaining := s.RevisitCooldownRemaining(id, now); remaining > 0 {
			result.Outcome = progress.VisitOutcome{
				Status:        progress.VisitBlocked,
				DaysRemaining: progress.CooldownDaysRemaining(remaining),
			}
			result.TotalPoints = s.TotalPoints.Int()
			blocked = true
		}
		return nil
	})
	return blocked
}

// resolvePosition returns a usable fix or nil. A command-supplied fix is
// trusted only if it passes the same freshness gate a live fix would.
func (h *VerifyVisitHandler) resolvePosition(ctx context.Context, cmd VerifyVisitCommand, now time.Time) *location.Position {
	if cmd.Position != nil {
		if cmd.Position.FreshAt(now) {
			return cmd.Position
		}
		return nil
	}
	if h.locator == nil || h.locator.Authorization() == location.AuthorizationDenied {
		return nil
	}
	pos, err := h.locator.RequestPosition(ctx, h.positionTimeout)
	if err != nil {
		return nil
	}
	return pos
}

func (h *VerifyVisitHandler) fillTotals(ctx context.Context, result *VerifyVisitResult) {
	_ = h.store.View(ctx, func(s *progress.State) error {
		result.TotalPoints = s.TotalPoints.Int()
		return nil
	})
}

func (h *VerifyVisitHandler) buildEvents(cmd VerifyVisitCommand, result *VerifyVisitResult, unlocks []achievement.Unlock) []shared.Event {
	events := make([]shared.Event, 0, 1+len(unlocks))

	switch result.Outcome.Status {
	case progress.VisitVerified:
		event := shared.VisitVerifiedEvent{
			BaseEvent:    shared.NewBaseEvent(shared.EventVisitVerified, cmd.SiteID.String()),
			SiteID:       cmd.SiteID,
			DistanceKm:   result.Outcome.DistanceKm,
			PointsEarned: result.Outcome.PointsAwarded,
		}
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		events = append(events, event)
	case progress.VisitUpgraded:
		event := shared.VisitUpgradedEvent{
			BaseEvent:    shared.NewBaseEvent(shared.EventVisitUpgraded, cmd.SiteID.String()),
			SiteID:       cmd.SiteID,
			DistanceKm:   result.Outcome.DistanceKm,
			PointsEarned: result.Outcome.PointsAwarded,
		}
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		events = append(events, event)
	}

	return append(events, unlockEvents(unlocks, cmd.CorrelationID)...)
}

// unlockEvents converts evaluator unlocks into publishable events. Shared by
// every command that can trigger achievements.
func unlockEvents(unlocks []achievement.Unlock, correlationID string) []shared.Event {
	events := make([]shared.Event, 0, len(unlocks))
	for _, u := range unlocks {
		event := shared.AchievementUnlockedEvent{
			BaseEvent:          shared.NewBaseEvent(shared.EventAchievementUnlocked, u.Achievement.ID.String()),
			AchievementIDValue: u.Achievement.ID,
			Name:               u.Achievement.Name,
			RewardPoints:       u.RewardPoints,
		}
		if correlationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(correlationID)
		}
		events = append(events, event)
	}
	return events
}
