package reactor

import (
	"github.com/vireolabs/reactor/internal/reactive"
	"github.com/vireolabs/reactor/internal/runtime"
)

// WatchHandle stops a watcher created by Watch.
type WatchHandle struct {
	eff *reactive.Effect
}

// Stop detaches the watcher; its callback will not run again.
func (h *WatchHandle) Stop() { reactive.Stop(h.eff) }

// Watch calls cb with the old and new value of source whenever source
// changes, without running cb immediately the way NewEffect does. Unlike a
// plain effect, a watcher may legally trigger itself by writing back into
// its own source from inside cb.
func Watch[T any](source func() T, cb func(newVal, oldVal T)) *WatchHandle {
	rt := runtime.Current()
	owner := currentOwner()

	var oldVal T
	first := true

	eff := rt.NewEffect(func() any {
		newVal := source()
		if !first {
			cb(newVal, oldVal)
		}
		first = false
		oldVal = newVal
		return nil
	}, reactive.EffectOptions{
		Lazy:         true,
		AllowRecurse: true,
	})

	// eff.Run's initial call leaves eff on the tracker's stack until it
	// returns; a batch scope defers any write-triggered requeue until
	// after that, so a write into the source made while source runs for
	// the first time (cb is not called on that run) isn't swallowed by
	// Effect.Run's re-entrancy guard.
	rt.Scheduler.BeginBatch()
	eff.Run()
	rt.Scheduler.EndBatch()

	h := &WatchHandle{eff: eff}
	if owner != nil {
		owner.OnCleanup(h.Stop)
	}
	return h
}
