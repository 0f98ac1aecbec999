package reactor

import (
	"github.com/vireolabs/reactor/internal/reactive"
	"github.com/vireolabs/reactor/internal/runtime"
)

// Slice is a reactive array: writing an element, pushing, or changing the
// length each fan out to exactly the deps the distilled array rules name —
// an index write only reruns readers of that index, a length shrink also
// reruns readers of the indices it dropped.
type Slice[T any] struct {
	s *reactive.Slice[T]
}

// NewSlice creates a reactive slice seeded with initial.
func NewSlice[T any](initial ...T) *Slice[T] {
	return &Slice[T]{s: reactive.NewSlice(runtime.Current().Graph, initial...)}
}

func (s *Slice[T]) Get(i int) T      { return s.s.Get(i) }
func (s *Slice[T]) Len() int         { return s.s.Len() }
func (s *Slice[T]) Set(i int, v T)   { s.s.Set(i, v) }
func (s *Slice[T]) Push(v T)         { s.s.Push(v) }
func (s *Slice[T]) SetLen(n int)     { s.s.SetLen(n) }
func (s *Slice[T]) Clear()           { s.s.Clear() }
func (s *Slice[T]) Snapshot() []T    { return s.s.Snapshot() }
