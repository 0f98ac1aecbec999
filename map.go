package reactor

import (
	"github.com/vireolabs/reactor/internal/reactive"
	"github.com/vireolabs/reactor/internal/runtime"
)

// Map is a reactive map: reading a key, checking membership, or iterating
// keys each track a dependency scoped to what was actually read, so a write
// to one key never reruns an effect that only ever read a different one.
type Map[K comparable, V any] struct {
	m *reactive.Map[K, V]
}

// NewMap creates an empty reactive map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: reactive.NewMap[K, V](runtime.Current().Graph)}
}

func (m *Map[K, V]) Get(key K) (V, bool) { return m.m.Get(key) }
func (m *Map[K, V]) Has(key K) bool      { return m.m.Has(key) }
func (m *Map[K, V]) Set(key K, value V)  { m.m.Set(key, value) }
func (m *Map[K, V]) Delete(key K)        { m.m.Delete(key) }
func (m *Map[K, V]) Clear()              { m.m.Clear() }
func (m *Map[K, V]) Len() int            { return m.m.Len() }
func (m *Map[K, V]) Keys() []K           { return m.m.Keys() }
