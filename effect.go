package reactor

import (
	"github.com/vireolabs/reactor/internal/reactive"
	"github.com/vireolabs/reactor/internal/runtime"
)

// EffectHandle is the live handle to an effect created by NewEffect: used to
// Stop it before the owner that created it is disposed.
type EffectHandle struct {
	eff *reactive.Effect
}

// EffectConfig controls how an effect reruns.
type EffectConfig struct {
	// Lazy skips the initial run. EffectHandle has no Run method, so an
	// effect created lazily here never runs, tracks nothing and never
	// reruns. Watch does not use this option.
	Lazy bool

	// AllowRecurse legalizes an effect whose own write causes it to
	// re-queue itself during the same drain.
	AllowRecurse bool
}

// NewEffect runs fn immediately, tracking every signal and container it
// reads, and reruns it (batched through the runtime's scheduler) whenever
// one of those dependencies changes.
func NewEffect(fn func()) *EffectHandle {
	return NewEffectWithConfig(fn, EffectConfig{})
}

// NewEffectWithConfig is NewEffect with explicit recursion/laziness control.
func NewEffectWithConfig(fn func(), cfg EffectConfig) *EffectHandle {
	rt := runtime.Current()
	owner := currentOwner()

	eff := rt.NewEffect(func() any {
		fn()
		return nil
	}, reactive.EffectOptions{
		Lazy:         cfg.Lazy,
		AllowRecurse: cfg.AllowRecurse,
	})

	h := &EffectHandle{eff: eff}
	if owner != nil {
		owner.OnCleanup(h.Stop)
	}
	return h
}

// Stop detaches the effect from the graph; it will not rerun again.
func (h *EffectHandle) Stop() { reactive.Stop(h.eff) }

// Untrack runs fn without recording any dependency reads it performs, even
// if called from inside an active effect.
func Untrack[T any](fn func() T) T {
	var result T
	runtime.Current().Graph.RunUntracked(func() { result = fn() })
	return result
}
