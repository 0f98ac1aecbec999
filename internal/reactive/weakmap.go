package reactive

import (
	"runtime"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

// keyMap is the per-target inner map: key -> Dep. Strong, as the distilled
// spec requires ("the inner map is strong").
type keyMap struct {
	mu   sync.Mutex
	deps map[any]*Dep
}

type shard struct {
	mu      sync.Mutex
	entries map[uintptr]*keyMap
}

// targetMap is the graph's outer map: target identity -> keyMap. It never
// stores a reference to the target itself, so nothing here keeps a target
// alive; registerCleanup additionally erases the shard entry once the
// target is actually collected, so long-lived graphs don't accumulate dead
// shard entries for targets that come and go.
type targetMap struct {
	shards [shardCount]shard
}

func newTargetMap() *targetMap {
	m := &targetMap{}
	for i := range m.shards {
		m.shards[i].entries = make(map[uintptr]*keyMap)
	}
	return m
}

func (m *targetMap) shardFor(id uintptr) *shard {
	h := xxhash.Sum64(indexKeyBytes(id))
	return &m.shards[h%uint64(shardCount)]
}

func indexKeyBytes(id uintptr) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(id >> (8 * i))
	}
	return b
}

// lookup returns the keyMap for target, creating it if create is true.
// Returns nil, false if absent and create is false (Trigger's "if absent,
// return" precondition).
func (m *targetMap) lookup(target any, create bool) (*keyMap, bool) {
	id := identityOf(target)
	s := m.shardFor(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if km, ok := s.entries[id]; ok {
		return km, true
	}
	if !create {
		return nil, false
	}

	km := &keyMap{deps: make(map[any]*Dep)}
	s.entries[id] = km
	return km, true
}

// release erases the shard entry for id. Registered as the cleanup callback
// for every target via registerCleanup.
func (m *targetMap) release(id uintptr) {
	s := m.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// registerCleanup arms the GC-transparency guarantee for a freshly
// constructed target: once target becomes unreachable, its shard entry (and
// therefore every Dep it owns) is dropped. Called once by each concrete
// target constructor (NewSignal, NewMap, NewSlice), which is the
// only place the concrete pointer type is known at compile time.
func registerCleanup[T any](m *targetMap, target *T) {
	id := identityOf(target)
	runtime.AddCleanup(target, m.release, id)
}

// RegisterTarget arms the same GC-transparency guarantee as registerCleanup
// for a target type defined outside this package (e.g. a computed value in
// the public API), which is otherwise unable to reach the unexported
// targetMap.release callback.
func RegisterTarget[T any](g *Graph, target *T) {
	registerCleanup(g.targets, target)
}
