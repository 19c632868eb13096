package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	return NewInMemoryEventBus(cfg)
}

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var seen []shared.EventType
	err := bus.Subscribe(shared.EventVisitVerified, func(event shared.Event) error {
		seen = append(seen, event.EventType())
		return nil
	})
	require.NoError(t, err)

	event := shared.VisitVerifiedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventVisitVerified, "great_pyramid"),
	}
	require.NoError(t, bus.Publish(event))
	require.NoError(t, bus.Publish(shared.QuizCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventQuizCompleted, "khufu_1"),
	}))

	// Sync mode: handler ran before Publish returned.
	assert.Equal(t, []shared.EventType{shared.EventVisitVerified}, seen)
}

func TestInMemoryEventBus_SubscribeAll(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var count int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.VisitVerifiedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventVisitVerified, "great_pyramid"),
	}))
	require.NoError(t, bus.Publish(shared.ProgressResetEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventProgressReset, "progress"),
	}))

	assert.Equal(t, 2, count)
}

func TestInMemoryEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.VisitVerifiedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventVisitVerified, "great_pyramid"),
	})
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestInMemoryEventBus_MetricsCountPublishes(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventVisitVerified, func(shared.Event) error {
		return nil
	}))
	require.NoError(t, bus.Publish(shared.VisitVerifiedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventVisitVerified, "great_pyramid"),
	}))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(1), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}
