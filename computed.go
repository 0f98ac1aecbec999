package reactor

import (
	"github.com/vireolabs/reactor/internal/reactive"
	"github.com/vireolabs/reactor/internal/runtime"
)

// Computed is a derived, memoized value: its getter only reruns when one of
// the signals it read last time changes. When such a change arrives it marks
// itself dirty and notifies its own dependents at once, without recomputing
// first and without comparing old and new results; the recompute happens on
// the next Read — the same lazy-pull shape Vue's computed refs use.
type Computed[T any] struct {
	graph  *reactive.Graph
	effect *reactive.Effect
	value  T
	dirty  bool
}

// NewComputed wraps compute as a lazily evaluated, cached derivation.
func NewComputed[T any](compute func() T) *Computed[T] {
	rt := runtime.Current()
	c := &Computed[T]{graph: rt.Graph, dirty: true}

	c.effect = rt.Graph.NewEffect(func() any {
		c.value = compute()
		return nil
	}, reactive.EffectOptions{
		Lazy: true,
		Scheduler: func(_ *reactive.Effect) {
			if c.dirty {
				return
			}
			c.dirty = true
			c.graph.Trigger(reactive.TriggerInfo{Target: c, Op: reactive.TriggerSet, Key: reactive.ValueKey})
		},
	})

	reactive.RegisterTarget(c.graph, c)
	return c
}

// Read returns the memoized value, recomputing first if a dependency
// changed since the last read, and tracks a dependency on this computed in
// turn.
func (c *Computed[T]) Read() T {
	c.graph.Track(c, reactive.TrackGet, reactive.ValueKey)

	if c.dirty {
		c.effect.Run()
		c.dirty = false
	}
	return c.value
}
