package reactive

import "sync"

// Map is a reactive map target, exercising the ADD/DELETE/SET/CLEAR and
// iterate-key/map-key-iterate-key dep-selection rules from Trigger.
type Map[K comparable, V any] struct {
	graph *Graph
	mu    sync.RWMutex
	data  map[K]V
}

func NewMap[K comparable, V any](g *Graph) *Map[K, V] {
	m := &Map[K, V]{graph: g, data: make(map[K]V)}
	registerCleanup(g.targets, m)
	return m
}

func (m *Map[K, V]) targetIdentity() uintptr { return identityOf(m) }

func (m *Map[K, V]) Get(key K) (V, bool) {
	m.graph.Track(m, TrackGet, key)
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *Map[K, V]) Has(key K) bool {
	m.graph.Track(m, TrackHas, key)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

func (m *Map[K, V]) Set(key K, value V) {
	m.mu.Lock()
	old, existed := m.data[key]
	m.data[key] = value
	m.mu.Unlock()

	if existed {
		m.graph.Trigger(TriggerInfo{Target: m, Op: TriggerSet, Key: key, NewVal: value, OldVal: old, IsMap: true})
	} else {
		m.graph.Trigger(TriggerInfo{Target: m, Op: TriggerAdd, Key: key, NewVal: value, IsMap: true})
	}
}

func (m *Map[K, V]) Delete(key K) {
	m.mu.Lock()
	old, existed := m.data[key]
	if !existed {
		m.mu.Unlock()
		return
	}
	delete(m.data, key)
	m.mu.Unlock()

	m.graph.Trigger(TriggerInfo{Target: m, Op: TriggerDelete, Key: key, OldVal: old, IsMap: true})
}

func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	if len(m.data) == 0 {
		m.mu.Unlock()
		return
	}
	old := m.data
	m.data = make(map[K]V)
	m.mu.Unlock()

	m.graph.Trigger(TriggerInfo{Target: m, Op: TriggerClear, OldTarget: old, IsMap: true})
}

func (m *Map[K, V]) Len() int {
	m.graph.Track(m, TrackIterate, MapKeyIterateKey)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Keys tracks the iterate-key dependency, which Trigger fires on add,
// delete and clear, and also on a value change to an existing key.
func (m *Map[K, V]) Keys() []K {
	m.graph.Track(m, TrackIterate, IterateKey)
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]K, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// Slice is a reactive array-like target, exercising the "length" and
// integer-index dep-selection rules from Trigger.
type Slice[T any] struct {
	graph *Graph
	mu    sync.RWMutex
	data  []T
}

func NewSlice[T any](g *Graph, initial ...T) *Slice[T] {
	s := &Slice[T]{graph: g, data: append([]T(nil), initial...)}
	registerCleanup(g.targets, s)
	return s
}

func (s *Slice[T]) targetIdentity() uintptr { return identityOf(s) }

func (s *Slice[T]) Get(i int) T {
	s.graph.Track(s, TrackGet, i)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[i]
}

func (s *Slice[T]) Len() int {
	s.graph.Track(s, TrackGet, LengthKey)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *Slice[T]) Set(i int, v T) {
	s.mu.Lock()
	s.data[i] = v
	s.mu.Unlock()

	s.graph.Trigger(TriggerInfo{Target: s, Op: TriggerSet, Key: i, NewVal: v, IsArray: true})
}

// Push appends v, triggering a single ADD for the new index, which on an
// array target reaches that index's dep and the length dep. No separate
// length SET is issued, so a length reader reruns once per Push.
func (s *Slice[T]) Push(v T) {
	s.mu.Lock()
	s.data = append(s.data, v)
	idx := len(s.data) - 1
	s.mu.Unlock()

	s.graph.Trigger(TriggerInfo{Target: s, Op: TriggerAdd, Key: idx, NewVal: v, IsArray: true})
}

// SetLen mutates length directly, triggering every dep at an index that is
// now out of bounds in addition to the length dep itself.
func (s *Slice[T]) SetLen(newLen int) {
	s.mu.Lock()
	if newLen < len(s.data) {
		s.data = s.data[:newLen]
	} else {
		var zero T
		for len(s.data) < newLen {
			s.data = append(s.data, zero)
		}
	}
	s.mu.Unlock()

	s.graph.Trigger(TriggerInfo{Target: s, Op: TriggerSet, Key: LengthKey, NewVal: newLen, IsArray: true})
}

func (s *Slice[T]) Clear() {
	s.mu.Lock()
	if len(s.data) == 0 {
		s.mu.Unlock()
		return
	}
	s.data = nil
	s.mu.Unlock()

	s.graph.Trigger(TriggerInfo{Target: s, Op: TriggerClear, IsArray: true})
}

// Snapshot tracks the iterate-key dependency and returns a copy of the
// current contents.
func (s *Slice[T]) Snapshot() []T {
	s.graph.Track(s, TrackIterate, IterateKey)
	s.graph.Track(s, TrackGet, LengthKey)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.data))
	copy(out, s.data)
	return out
}
