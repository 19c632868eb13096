package memory

import (
	"context"
	"sync"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/progress"
)

// KV is an in-memory progress.KeyValue for tests and for running without
// Redis. Values are copied on both sides of the boundary.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKV creates an empty key-value store.
func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get implements progress.KeyValue.
func (k *KV) Get(_ context.Context, key string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	blob, ok := k.data[key]
	if !ok {
		return nil, progress.ErrKeyNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// Set implements progress.KeyValue.
func (k *KV) Set(_ context.Context, key string, value []byte) error {
	blob := make([]byte, len(value))
	copy(blob, value)
	k.mu.Lock()
	k.data[key] = blob
	k.mu.Unlock()
	return nil
}

// Delete implements progress.KeyValue.
func (k *KV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	delete(k.data, key)
	k.mu.Unlock()
	return nil
}

// Len returns the stored key count.
func (k *KV) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.data)
}
