//go:build !wasm

package runtime

import (
	"sync"

	"github.com/petermattis/goid"
	"github.com/vireolabs/reactor/internal/scheduler"
)

var (
	registry      sync.Map // goroutine id (int64) -> *Runtime
	devMode       bool
	drainObserver scheduler.DrainObserver
)

// SetDevMode toggles recursion-limit diagnostics for runtimes created from
// this point forward. It does not affect runtimes already registered.
func SetDevMode(v bool) { devMode = v }

// SetDrainObserver attaches a scheduler.DrainObserver to runtimes created
// from this point forward, such as a devtools server mirroring drain
// activity onto a dashboard. It does not affect runtimes already registered.
func SetDrainObserver(o scheduler.DrainObserver) { drainObserver = o }

// Current returns the Runtime owned by the calling goroutine, creating one
// on first use. Each goroutine gets its own graph and scheduler, so signal
// writes on one goroutine never batch with or trigger effects owned by
// another — mirroring a single-threaded reactive runtime without requiring
// a global lock on every read.
func Current() *Runtime {
	gid := goid.Get()

	if r, ok := registry.Load(gid); ok {
		return r.(*Runtime)
	}

	r := New(Options{DevMode: devMode, DrainObserver: drainObserver})
	registry.Store(gid, r)
	return r
}
