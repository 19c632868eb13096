// Package memory implements the single-writer progress store. The in-memory
// state is authoritative for the whole session; the backing key-value store
// is a write-behind copy used only to survive restarts.
package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
)

// Store is the progress.Store implementation. One RWMutex serializes every
// Update against concurrent Views, which is all the concurrency control a
// single-profile engine needs.
type Store struct {
	mu    sync.RWMutex
	state *progress.State

	kv     progress.KeyValue
	logger *slog.Logger

	generation atomic.Uint64
}

// NewStore creates a store hydrated from kv. A nil kv gives a purely
// in-memory store; missing keys load as empty field groups. Corrupt blobs
// fail the load so the caller can decide whether to reset.
func NewStore(ctx context.Context, kv progress.KeyValue, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, logger: logger}

	if kv == nil {
		s.state = progress.NewState()
		return s, nil
	}

	blobs := make(map[string][]byte)
	for _, key := range progress.AllKeys() {
		blob, err := kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, progress.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		blobs[key] = blob
	}

	state, err := progress.Decode(blobs)
	if err != nil {
		return nil, err
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	s.state = state
	return s, nil
}

// View implements progress.Store.
func (s *Store) View(_ context.Context, fn func(*progress.State) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// Update implements progress.Store. The closure's error aborts the commit:
// no generation bump, no persistence. Persistence failures after a committed
// closure are logged and swallowed; memory stays authoritative.
func (s *Store) Update(ctx context.Context, fn func(*progress.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.state); err != nil {
		return err
	}

	s.generation.Add(1)
	s.persist(ctx)
	return nil
}

// Generation implements progress.Store.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// Reset implements progress.Store.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = progress.NewState()
	s.generation.Add(1)
	s.persist(ctx)
	return nil
}

// persist writes every field group best-effort. Called with mu held.
func (s *Store) persist(ctx context.Context) {
	if s.kv == nil {
		return
	}

	blobs, err := progress.Encode(s.state)
	if err != nil {
		s.logger.Warn("progress encode failed, skipping persistence", "error", err)
		return
	}
	for key, blob := range blobs {
		if err := s.kv.Set(ctx, key, blob); err != nil {
			s.logger.Warn("progress persistence failed", "key", key, "error", err)
		}
	}
}
