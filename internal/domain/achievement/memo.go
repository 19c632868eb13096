package achievement

import "sync"

// Memo caches the result of an aggregate computation keyed to the progress
// store's generation counter. Query handlers use it so repeated reads of
// achievement progress between writes cost one evaluation, not N.
type Memo[T any] struct {
	mu         sync.Mutex
	generation uint64
	value      T
	valid      bool
}

// Get returns the cached value when gen matches the generation the value was
// computed for, otherwise recomputes via fn and caches the result under gen.
func (m *Memo[T]) Get(gen uint64, fn func() T) T {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.generation == gen {
		return m.value
	}
	m.value = fn()
	m.generation = gen
	m.valid = true
	return m.value
}

// Invalidate drops the cached value regardless of generation.
func (m *Memo[T]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
	var zero T
	m.value = zero
}
