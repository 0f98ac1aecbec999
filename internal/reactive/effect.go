package reactive

import mapset "github.com/deckarep/golang-set/v2"

// Hooks are the debugger/devtools observation points a caller may attach to
// an effect at creation time.
type Hooks struct {
	OnTrack   func(e *Effect, target any, op TrackOp, key any)
	OnTrigger func(e *Effect, target any, op TriggerOp, key any)
	OnStop    func(e *Effect)
}

// EffectOptions configures a freshly created effect.
type EffectOptions struct {
	// Lazy skips the initial run; the caller invokes Run explicitly later.
	Lazy bool

	// AllowRecurse legalizes an effect causing itself to re-queue from
	// within its own Scheduler callback during Trigger.
	AllowRecurse bool

	// Scheduler, if set, is invoked by Trigger instead of running the
	// effect synchronously.
	Scheduler func(*Effect)

	Hooks Hooks

	// Raw wraps an existing effect's raw function instead of fn, used when
	// NewEffect is given an Effect to re-wrap (matching the distilled
	// spec's "if fn is itself an Effect, unwrap it to its raw").
	Raw func() any
}

// Effect is a recomputable unit of work whose reads are recorded as
// dependencies.
type Effect struct {
	id           int64
	active       bool
	allowRecurse bool
	raw          func() any
	scheduler    func(*Effect)
	hooks        Hooks
	deps         mapset.Set[*Dep]

	graph *Graph
}

// NewEffect allocates a fresh effect on g, unless opts.Lazy, runs it once
// immediately. Free-function form of (*Graph).NewEffect, matching the
// package's other constructors (NewGraph, NewSignal).
func NewEffect(g *Graph, fn func() any, opts EffectOptions) *Effect {
	return g.NewEffect(fn, opts)
}

// NewEffect allocates a fresh effect and, unless opts.Lazy, runs it once
// immediately.
func (g *Graph) NewEffect(fn func() any, opts EffectOptions) *Effect {
	raw := fn
	if opts.Raw != nil {
		raw = opts.Raw
	}

	e := &Effect{
		id:           g.nextEffectID(),
		active:       true,
		allowRecurse: opts.AllowRecurse,
		raw:          raw,
		scheduler:    opts.Scheduler,
		hooks:        opts.Hooks,
		deps:         mapset.NewThreadUnsafeSet[*Dep](),
		graph:        g,
	}

	if !opts.Lazy {
		e.Run()
	}

	return e
}

func (e *Effect) ID() int64               { return e.id }
func (e *Effect) Active() bool            { return e.active }
func (e *Effect) AllowRecurse() bool      { return e.allowRecurse }
func (e *Effect) HasScheduler() bool      { return e.scheduler != nil }
func (e *Effect) SetScheduler(fn func(*Effect)) { e.scheduler = fn }

// Run executes the invocation contract from the distilled spec's Effect
// Runtime design: active check, re-entrancy guard, dep cleanup,
// tracking-enabled push, effect-stack push, raw execution, guaranteed
// unwind.
func (e *Effect) Run() any {
	g := e.graph

	if !e.active {
		if e.scheduler != nil {
			return nil
		}
		var result any
		g.RunUntracked(func() { result = e.raw() })
		return result
	}

	if g.tracker.onStack(e) {
		return nil
	}

	e.cleanup()

	g.tracker.enableTracking()
	g.tracker.push(e)
	defer func() {
		g.tracker.pop()
		g.tracker.resetTracking()
	}()

	return e.raw()
}

// cleanup removes e from every dep it currently belongs to and clears its
// dep set, so each run recollects dependencies from scratch.
func (e *Effect) cleanup() {
	for _, d := range e.deps.ToSlice() {
		d.remove(e)
	}
	e.deps.Clear()
}

// Stop detaches e from the graph so future triggers ignore it. Idempotent.
func Stop(e *Effect) {
	if !e.active {
		return
	}
	e.cleanup()
	if e.hooks.OnStop != nil {
		e.hooks.OnStop(e)
	}
	e.active = false
}
