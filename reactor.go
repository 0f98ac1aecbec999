// Package reactor is a fine-grained reactive runtime: signals and
// containers that record which effects read them, effects that rerun when
// those reads go stale, and a batched flush scheduler that coalesces a
// synchronous burst of writes into a single settle.
//
// Every exported constructor resolves the calling goroutine's runtime
// lazily on first use, so a goroutine never has to be told which runtime it
// belongs to — it simply gets one the first time it touches a Signal,
// Effect, or Owner.
package reactor

import (
	"github.com/vireolabs/reactor/internal/runtime"
	"github.com/vireolabs/reactor/internal/scheduler"
)

// SetDevMode toggles the recursion-limit diagnostics a freshly created
// runtime logs when a job or callback reruns more than
// scheduler.RecursionLimit times within a single drain.
func SetDevMode(v bool) { runtime.SetDevMode(v) }

// DrainObserver receives drain start/end and recursion-limit notifications
// from a runtime's scheduler — devtools.Server implements it to mirror
// drain activity onto a live dashboard or session log.
type DrainObserver = scheduler.DrainObserver

// SetDrainObserver attaches o to runtimes created from this point forward
// on the calling goroutine's process (or, under wasm, the single process-
// wide runtime). It does not affect runtimes already in use.
func SetDrainObserver(o DrainObserver) { runtime.SetDrainObserver(o) }

// NextTick returns a future that resolves once the current goroutine's
// runtime finishes its in-flight (or next) flush, optionally chaining fn
// onto it. Mirrors Vue's nextTick: the idiomatic way to observe "after the
// DOM/effects have settled" without polling.
func NextTick(fn func()) *scheduler.Future {
	return runtime.Current().NextTick(fn)
}
