package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
)

func TestStore_UpdatePersistsAndBumpsGeneration(t *testing.T) {
	kv := NewKV()
	store, err := NewStore(context.Background(), kv, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), store.Generation())

	err = store.Update(context.Background(), func(s *progress.State) error {
		s.AwardScholarBadge("great_pyramid")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), store.Generation())
	assert.Equal(t, len(progress.AllKeys()), kv.Len())
}

func TestStore_FailedUpdateChangesNothing(t *testing.T) {
	kv := NewKV()
	store, err := NewStore(context.Background(), kv, nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.Update(context.Background(), func(s *progress.State) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(0), store.Generation())
	assert.Equal(t, 0, kv.Len())
}

func TestStore_ReloadsFromKV(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	first, err := NewStore(ctx, kv, nil)
	require.NoError(t, err)
	require.NoError(t, first.Update(ctx, func(s *progress.State) error {
		s.RecordVerifiedVisit("giza", now)
		s.AwardScholarBadge("great_pyramid")
		return nil
	}))

	second, err := NewStore(ctx, kv, nil)
	require.NoError(t, err)

	err = second.View(ctx, func(s *progress.State) error {
		assert.True(t, s.IsFullyVerified("giza"))
		assert.True(t, s.HasScholarBadge("great_pyramid"))
		assert.Equal(t, progress.PointsVerifiedVisit+progress.PointsScholarBadge, s.TotalPoints.Int())
		return nil
	})
	require.NoError(t, err)
}

func TestStore_NilKVIsMemoryOnly(t *testing.T) {
	store, err := NewStore(context.Background(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, store.Update(context.Background(), func(s *progress.State) error {
		s.CreditPoints(10)
		return nil
	}))
	assert.Equal(t, uint64(1), store.Generation())
}

func TestStore_Reset(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()
	store, err := NewStore(ctx, kv, nil)
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(s *progress.State) error {
		s.CreditPoints(500)
		return nil
	}))
	require.NoError(t, store.Reset(ctx))

	reloaded, err := NewStore(ctx, kv, nil)
	require.NoError(t, err)
	err = reloaded.View(ctx, func(s *progress.State) error {
		assert.Equal(t, 0, s.TotalPoints.Int())
		return nil
	})
	require.NoError(t, err)
}
