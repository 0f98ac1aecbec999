//go:build wasm

package runtime

import (
	"sync"

	"github.com/vireolabs/reactor/internal/scheduler"
)

var (
	once          sync.Once
	global        *Runtime
	devMode       bool
	drainObserver scheduler.DrainObserver
)

// SetDevMode toggles recursion-limit diagnostics. Under wasm it only takes
// effect before the first call to Current, since there is a single shared
// runtime for the whole program.
func SetDevMode(v bool) { devMode = v }

// SetDrainObserver attaches a scheduler.DrainObserver to the process-wide
// runtime. Under wasm it only takes effect before the first call to Current.
func SetDrainObserver(o scheduler.DrainObserver) { drainObserver = o }

// Current returns the single process-wide Runtime. wasm builds run on one
// real OS thread with cooperative goroutines, so per-goroutine isolation
// would be pointless overhead; every caller shares one graph and scheduler.
func Current() *Runtime {
	once.Do(func() {
		global = New(Options{DevMode: devMode, DrainObserver: drainObserver})
	})
	return global
}
