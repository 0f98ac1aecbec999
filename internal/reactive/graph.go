package reactive

import (
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
)

// Graph binds the Effect Runtime and the Dependency Graph (components A and
// B of the design) into a single handle, the way AnatoleLucet-sig/internal's
// Runtime binds its heap, tracker and queues together. One Graph belongs to
// exactly one internal/runtime.Runtime.
type Graph struct {
	targets *targetMap
	tracker tracker

	nextID atomic.Int64
}

func NewGraph() *Graph {
	return &Graph{
		targets: newTargetMap(),
		tracker: newTracker(),
	}
}

func (g *Graph) nextEffectID() int64 {
	return g.nextID.Add(1)
}

// ActiveEffect returns the effect currently executing on this graph, or nil.
func (g *Graph) ActiveEffect() *Effect { return g.tracker.activeEffect }

// ShouldTrack reports whether a read occurring right now should be recorded.
func (g *Graph) ShouldTrack() bool { return g.tracker.shouldTrack }

func (g *Graph) PauseTracking()  { g.tracker.pauseTracking() }
func (g *Graph) EnableTracking() { g.tracker.enableTracking() }
func (g *Graph) ResetTracking()  { g.tracker.resetTracking() }

// RunUntracked runs fn with tracking paused, restoring the previous state
// unconditionally.
func (g *Graph) RunUntracked(fn func()) {
	g.tracker.pauseTracking()
	defer g.tracker.resetTracking()
	fn()
}

// Track records a read edge from the active effect to (target, key).
// No-op unless tracking is enabled and an effect is active.
func (g *Graph) Track(target any, op TrackOp, key any) {
	if !g.tracker.shouldTrack || g.tracker.activeEffect == nil {
		return
	}
	e := g.tracker.activeEffect

	km, _ := g.targets.lookup(target, true)
	km.mu.Lock()
	dep, ok := km.deps[key]
	if !ok {
		dep = newDep()
		km.deps[key] = dep
	}
	km.mu.Unlock()

	dep.add(e)

	if e.hooks.OnTrack != nil {
		e.hooks.OnTrack(e, target, op, key)
	}
}

// TriggerInfo carries everything Trigger needs to classify a write and fan
// it out to the right deps. IsArray/IsMap are supplied by the concrete
// target type (Slice/Map) so the graph never needs reflection to tell
// container shape apart from a plain scalar Signal.
type TriggerInfo struct {
	Target    any
	Op        TriggerOp
	Key       any
	NewVal    any
	OldVal    any
	OldTarget any
	IsArray   bool
	IsMap     bool
}

// Trigger fans a write on (target, key) out to every subscribed effect,
// applying the distilled spec's dep-selection rules.
func (g *Graph) Trigger(info TriggerInfo) {
	km, ok := g.targets.lookup(info.Target, false)
	if !ok {
		return
	}

	toRun := mapset.NewThreadUnsafeSet[*Effect]()
	active := g.tracker.activeEffect

	collect := func(dep *Dep) {
		if dep == nil {
			return
		}
		for _, e := range dep.Effects() {
			if e != active || e.allowRecurse {
				toRun.Add(e)
			}
		}
	}

	km.mu.Lock()
	switch {
	case info.Op == TriggerClear:
		for _, dep := range km.deps {
			collect(dep)
		}

	case info.Op == TriggerSet && info.IsArray && info.Key == LengthKey:
		collect(km.deps[LengthKey])
		newLen := toInt(info.NewVal)
		for k, dep := range km.deps {
			if idx, isIndex := asArrayIndex(k); isIndex && idx >= newLen {
				collect(dep)
			}
		}

	case info.Key != nil:
		collect(km.deps[info.Key])

		switch info.Op {
		case TriggerAdd:
			if info.IsArray {
				if _, isIndex := asArrayIndex(info.Key); isIndex {
					collect(km.deps[LengthKey])
				}
			} else {
				collect(km.deps[IterateKey])
				if info.IsMap {
					collect(km.deps[MapKeyIterateKey])
				}
			}
		case TriggerDelete:
			if !info.IsArray {
				collect(km.deps[IterateKey])
				if info.IsMap {
					collect(km.deps[MapKeyIterateKey])
				}
			}
		case TriggerSet:
			if info.IsMap {
				collect(km.deps[IterateKey])
			}
		}
	}
	km.mu.Unlock()

	for _, e := range toRun.ToSlice() {
		if e.hooks.OnTrigger != nil {
			e.hooks.OnTrigger(e, info.Target, info.Op, info.Key)
		}
		if e.scheduler != nil {
			e.scheduler(e)
		} else {
			e.Run()
		}
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func asArrayIndex(key any) (int, bool) {
	n, ok := key.(int)
	return n, ok
}
