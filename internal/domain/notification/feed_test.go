package notification

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_PushAndPending(t *testing.T) {
	f := NewFeed()
	now := time.Now().UTC()

	f.Push("first_discovery", "First Discovery", 100, now)
	f.Push("quiz_novice", "Quiz Novice", 50, now)

	pending := f.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "First Discovery", pending[0].Name)
	assert.Equal(t, "Quiz Novice", pending[1].Name)
}

func TestFeed_AcknowledgeExactlyOnce(t *testing.T) {
	f := NewFeed()
	id := f.Push("first_discovery", "First Discovery", 100, time.Now().UTC())

	assert.True(t, f.Acknowledge(id))
	assert.Empty(t, f.Pending())

	// Second ack of the same notice is rejected.
	assert.False(t, f.Acknowledge(id))
}

func TestFeed_AcknowledgeUnknownID(t *testing.T) {
	f := NewFeed()
	f.Push("first_discovery", "First Discovery", 100, time.Now().UTC())

	assert.False(t, f.Acknowledge(uuid.New()))
	assert.Len(t, f.Pending(), 1)
}

func TestFeed_Clear(t *testing.T) {
	f := NewFeed()
	f.Push("a_one", "One", 10, time.Now().UTC())
	f.Push("a_two", "Two", 20, time.Now().UTC())

	f.Clear()
	assert.Empty(t, f.Pending())
}
