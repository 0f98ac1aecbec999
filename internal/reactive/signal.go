package reactive

// Signal is a scalar reactive cell: the simplest possible Target, tracked
// and triggered under the single sentinel ValueKey. Constrained to
// comparable so Write can cheaply short-circuit on an unchanged value,
// mirroring AnatoleLucet-sig/sig/signal.go's `type signal[T comparable]`.
type Signal[T comparable] struct {
	graph *Graph
	value T
}

func NewSignal[T comparable](g *Graph, initial T) *Signal[T] {
	s := &Signal[T]{graph: g, value: initial}
	registerCleanup(g.targets, s)
	return s
}

func (s *Signal[T]) targetIdentity() uintptr { return identityOf(s) }

// Read tracks a dependency on the signal's value if called from within a
// running effect, then returns the current value.
func (s *Signal[T]) Read() T {
	s.graph.Track(s, TrackGet, ValueKey)
	return s.value
}

// Peek reads the current value without tracking any dependency.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Write stores a new value and triggers dependents, unless the value is
// unchanged.
func (s *Signal[T]) Write(v T) {
	old := s.value
	if old == v {
		return
	}
	s.value = v
	s.graph.Trigger(TriggerInfo{
		Target: s,
		Op:     TriggerSet,
		Key:    ValueKey,
		NewVal: v,
		OldVal: old,
	})
}
