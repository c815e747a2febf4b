// # internal/shared/cache/memo.go
package cache

import "sync"

// Memo is a lazily populated key/value map. A value is computed on first
// access and returned unchanged on every later access, so callers can rely on
// pointer identity of cached results.
//
// Compute functions may re-enter the same Memo for other keys; the lock is
// never held while a value is being computed.
//
// Usage:
//
//	exports := NewMemo[string, *ExportMap]()
//	m := exports.GetOrCompute(path, func() *ExportMap { return build(path) })
type Memo[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]V
	order []K
}

func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{items: make(map[K]V)}
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. When two computations race the first stored value wins.
func (m *Memo[K, V]) GetOrCompute(key K, compute func() V) V {
	m.mu.Lock()
	if v, ok := m.items[key]; ok {
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	v := compute()

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.items[key]; ok {
		return existing
	}
	m.items[key] = v
	m.order = append(m.order, key)
	return v
}

// Get returns the cached value without computing it.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

// Put stores value unless key is already present and reports whether it was
// stored.
func (m *Memo[K, V]) Put(key K, value V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; ok {
		return false
	}
	m.items[key] = value
	m.order = append(m.order, key)
	return true
}

// Keys returns the cached keys in insertion order.
func (m *Memo[K, V]) Keys() []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]K, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Clear drops every cached value.
func (m *Memo[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[K]V)
	m.order = nil
}
