package command

import (
	"context"
	"fmt"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOGGLE FAVORITE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ToggleFavoriteCommand contains the data to toggle a site favorite.
type ToggleFavoriteCommand struct {
	// SiteID is the site to toggle.
	SiteID shared.SiteID

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ToggleFavoriteCommand) Validate() error {
	if !c.SiteID.IsValid() {
		return fmt.Errorf("toggle_favorite: invalid site id %q", c.SiteID)
	}
	return nil
}

// ToggleFavoriteResult contains the result of a favorite toggle.
type ToggleFavoriteResult struct {
	// SiteID is the toggled site.
	SiteID shared.SiteID

	// Favorite is the new favorite state.
	Favorite bool
}

// ToggleFavoriteHandler handles the ToggleFavoriteCommand.
type ToggleFavoriteHandler struct {
	store     progress.Store
	catalog   site.Catalog
	publisher shared.EventPublisher
}

// NewToggleFavoriteHandler creates a new ToggleFavoriteHandler.
func NewToggleFavoriteHandler(store progress.Store, catalog site.Catalog, publisher shared.EventPublisher) *ToggleFavoriteHandler {
	return &ToggleFavoriteHandler{store: store, catalog: catalog, publisher: publisher}
}

// Handle executes the toggle favorite command.
func (h *ToggleFavoriteHandler) Handle(ctx context.Context, cmd ToggleFavoriteCommand) (*ToggleFavoriteResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "ToggleFavorite", shared.ErrValidation, "validation failed", err)
	}

	if _, err := h.catalog.SiteByID(ctx, cmd.SiteID); err != nil {
		return nil, err
	}

	result := &ToggleFavoriteResult{SiteID: cmd.SiteID}
	err := h.store.Update(ctx, func(s *progress.State) error {
		result.Favorite = s.ToggleFavorite(cmd.SiteID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := shared.FavoriteToggledEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventFavoriteToggled, cmd.SiteID.String()),
		SiteID:    cmd.SiteID,
		Favorite:  result.Favorite,
	}
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.publisher.Publish(event)

	return result, nil
}
