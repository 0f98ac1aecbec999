package reactor

import (
	"github.com/vireolabs/reactor/internal/reactive"
	"github.com/vireolabs/reactor/internal/runtime"
)

// Signal is a single reactive value of comparable type T. Reading it inside
// an Effect or Computed records a dependency; writing a different value
// reruns every dependent.
type Signal[T comparable] struct {
	sig *reactive.Signal[T]
}

// NewSignal creates a signal seeded with initial, bound to the calling
// goroutine's runtime.
func NewSignal[T comparable](initial T) *Signal[T] {
	return &Signal[T]{sig: reactive.NewSignal(runtime.Current().Graph, initial)}
}

// Read returns the current value, tracking the dependency if called from
// within an active effect.
func (s *Signal[T]) Read() T { return s.sig.Read() }

// Peek returns the current value without tracking a dependency.
func (s *Signal[T]) Peek() T { return s.sig.Peek() }

// Write stores v, triggering every effect that last read this signal,
// unless v equals the previous value. The whole fan-out of one write runs
// inside a batch scope, so dependents reached through several computeds
// rerun once, after every computed on the way has been marked dirty.
func (s *Signal[T]) Write(v T) {
	runtime.Current().Batch(func() { s.sig.Write(v) })
}
