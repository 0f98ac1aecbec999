// Package runtime binds one dependency graph and one flush scheduler
// together per execution context and wires effect scheduling between them.
package runtime

import (
	"sync"

	"github.com/vireolabs/reactor/internal/reactive"
	"github.com/vireolabs/reactor/internal/scheduler"
)

// Runtime is the per-context pairing of a dependency Graph and a flush
// Scheduler: every Effect created through a Runtime gets a scheduler
// callback that enqueues its rerun as a prioritized Job instead of running
// inline, which is what turns synchronous writes into a single batched
// drain.
type Runtime struct {
	Graph     *reactive.Graph
	Scheduler *scheduler.Scheduler

	errorHandler func(err any, code scheduler.ErrorCode)

	// ownerStack holds the lifecycle owner currently in scope, as `any`
	// because Owner is defined in the public API package, which imports
	// this one; typed here it would be a cyclic import.
	ownerStack []any

	// jobs caches one *scheduler.Job per effect ID so repeated writes
	// within the same synchronous burst dedup against the scheduler's
	// pointer-identity queue instead of each minting a fresh Job that
	// QueueJob can never recognize as the same pending rerun.
	jobs sync.Map // int64 -> *scheduler.Job
}

// Options configures a new Runtime.
type Options struct {
	DevMode       bool
	ErrorHandler  func(err any, code scheduler.ErrorCode)
	DrainObserver scheduler.DrainObserver
}

func New(opts Options) *Runtime {
	r := &Runtime{
		Graph:        reactive.NewGraph(),
		errorHandler: opts.ErrorHandler,
	}
	r.Scheduler = scheduler.New(scheduler.Options{
		DevMode:       opts.DevMode,
		ErrorHandler:  opts.ErrorHandler,
		DrainObserver: opts.DrainObserver,
	})
	return r
}

// Batch holds the runtime's drain pending across every write fn performs,
// so a burst of writes spread across several statements still settles in
// exactly one drain instead of one per write.
func (r *Runtime) Batch(fn func()) {
	r.Scheduler.BeginBatch()
	defer r.Scheduler.EndBatch()
	fn()
}

// NewEffect creates an effect on this runtime's graph whose reruns are
// queued on this runtime's scheduler rather than executed inline, unless
// opts.Lazy is set (the caller drives the first run) or opts.Scheduler is
// already populated by the caller. Construction runs inside a batch scope:
// the graph's own initial synchronous run of fn leaves the effect on the
// tracker's stack until NewEffect returns, so a write fn makes to its own
// dependency during that first run would otherwise find the effect's rerun
// silently skipped by the re-entrancy guard in Effect.Run. Deferring the
// drain until construction has fully unwound lets that rerun through.
func (r *Runtime) NewEffect(fn func() any, opts reactive.EffectOptions) *reactive.Effect {
	if opts.Scheduler == nil {
		opts.Scheduler = r.queueEffect
	}
	r.Scheduler.BeginBatch()
	defer r.Scheduler.EndBatch()
	return r.Graph.NewEffect(fn, opts)
}

// jobFor returns the single Job standing in for e's rerun across however
// many times it gets queued before a drain consumes it, creating it once
// and reusing the same pointer on every later call for this effect.
func (r *Runtime) jobFor(e *reactive.Effect) *scheduler.Job {
	if v, ok := r.jobs.Load(e.ID()); ok {
		return v.(*scheduler.Job)
	}
	id := e.ID()
	job := scheduler.NewJob(&id, func() {
		if e.Active() {
			e.Run()
		}
	})
	job.AllowRecurse = e.AllowRecurse()
	actual, _ := r.jobs.LoadOrStore(e.ID(), job)
	return actual.(*scheduler.Job)
}

func (r *Runtime) queueEffect(e *reactive.Effect) {
	r.Scheduler.QueueJob(r.jobFor(e))
}

// NextTick resolves once the runtime's current (or next) drain completes.
func (r *Runtime) NextTick(fn func()) *scheduler.Future {
	return r.Scheduler.NextTick(fn)
}

// PushOwner makes o the in-scope lifecycle owner for nodes created from this
// point forward on this runtime.
func (r *Runtime) PushOwner(o any) { r.ownerStack = append(r.ownerStack, o) }

// PopOwner restores the previously in-scope owner.
func (r *Runtime) PopOwner() {
	if len(r.ownerStack) == 0 {
		return
	}
	r.ownerStack = r.ownerStack[:len(r.ownerStack)-1]
}

// CurrentOwner returns the in-scope owner, or nil if none.
func (r *Runtime) CurrentOwner() any {
	if len(r.ownerStack) == 0 {
		return nil
	}
	return r.ownerStack[len(r.ownerStack)-1]
}
