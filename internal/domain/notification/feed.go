// Package notification buffers achievement unlock notices until the client
// acknowledges them, so each celebration screen is shown exactly once.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// UnlockNotice is one pending celebration.
type UnlockNotice struct {
	// ID identifies the notice for acknowledgement.
	ID uuid.UUID `json:"id"`

	// AchievementID is the unlocked achievement.
	AchievementID shared.AchievementID `json:"achievement_id"`

	// Name is the achievement display name.
	Name string `json:"name"`

	// RewardPoints is the reward that was credited.
	RewardPoints int `json:"reward_points"`

	// UnlockedAt is when the unlock happened.
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Feed is an in-memory queue of unacknowledged unlock notices. Notices are
// session-scoped: an unlock survives restarts through progress state, but a
// missed celebration does not replay.
type Feed struct {
	mu      sync.Mutex
	pending []UnlockNotice
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Push appends a notice and returns its generated ID.
func (f *Feed) Push(achievementID shared.AchievementID, name string, rewardPoints int, unlockedAt time.Time) uuid.UUID {
	id := uuid.New()
	f.mu.Lock()
	f.pending = append(f.pending, UnlockNotice{
		ID:            id,
		AchievementID: achievementID,
		Name:          name,
		RewardPoints:  rewardPoints,
		UnlockedAt:    unlockedAt,
	})
	f.mu.Unlock()
	return id
}

// Pending returns the unacknowledged notices in arrival order.
func (f *Feed) Pending() []UnlockNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]UnlockNotice, len(f.pending))
	copy(out, f.pending)
	return out
}

// Acknowledge removes one notice. Returns false when the ID is unknown,
// which includes a second acknowledgement of the same notice.
func (f *Feed) Acknowledge(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.pending {
		if n.ID == id {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every pending notice. Used on progress reset.
func (f *Feed) Clear() {
	f.mu.Lock()
	f.pending = nil
	f.mu.Unlock()
}

// UnlockSubscriber returns an event handler that feeds achievement unlock
// events into f. Wire it to shared.EventAchievementUnlocked on the bus.
func UnlockSubscriber(f *Feed) shared.EventHandler {
	return func(event shared.Event) error {
		unlock, ok := event.(shared.AchievementUnlockedEvent)
		if !ok {
			return nil
		}
		f.Push(unlock.AchievementIDValue, unlock.Name, unlock.RewardPoints, unlock.OccurredAt())
		return nil
	}
}
