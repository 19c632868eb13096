package progress

import (
	"context"
	"errors"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store is the single source of truth for the user's progress state.
//
// Concurrency contract: Update closures run one at a time and see the
// authoritative state; View closures may run concurrently with each other
// but never interleave with an Update, so every read observes a consistent
// snapshot. Closures must not retain the *State beyond their call.
type Store interface {
	// View runs fn with read access to the current state.
	View(ctx context.Context, fn func(*State) error) error

	// Update runs fn with exclusive write access, then persists the
	// state best-effort and bumps the generation counter if fn returned
	// nil. A persistence failure is logged, never returned: the
	// in-memory state stays authoritative for the session.
	Update(ctx context.Context, fn func(*State) error) error

	// Generation returns a counter that increases on every committed
	// Update. Caches key their validity to it.
	Generation() uint64

	// Reset clears all progress unconditionally and persists the empty
	// state.
	Reset(ctx context.Context) error
}

// ErrKeyNotFound is returned by KeyValue.Get for missing keys.
var ErrKeyNotFound = errors.New("progress: key not found")

// KeyValue is the opaque blob storage behind a Store. The engine persists
// one blob per field group and treats the store as schemaless.
type KeyValue interface {
	// Get returns the blob for a key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the blob for a key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}
