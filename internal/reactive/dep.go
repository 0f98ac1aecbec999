package reactive

import mapset "github.com/deckarep/golang-set/v2"

// Dep is the set of effects subscribed to a single (target, key) coordinate.
// Invariant: effect is in dep.effects iff dep is in effect.deps (see this
// file's add/remove, the only places that mutate both sides).
type Dep struct {
	effects mapset.Set[*Effect]
}

func newDep() *Dep {
	return &Dep{effects: mapset.NewThreadUnsafeSet[*Effect]()}
}

// add subscribes e to this dep and adds the reciprocal back-reference. A
// no-op if already subscribed, matching the "track is idempotent" law.
func (d *Dep) add(e *Effect) {
	if d.effects.Contains(e) {
		return
	}
	d.effects.Add(e)
	e.deps.Add(d)
}

// remove unsubscribes e from this dep and clears the reciprocal
// back-reference. Tolerates e already being absent (the effect-side cleanup
// driving this may race a dep that was already cleared).
func (d *Dep) remove(e *Effect) {
	d.effects.Remove(e)
	e.deps.Remove(d)
}

func (d *Dep) isEmpty() bool {
	return d.effects.Cardinality() == 0
}

// Effects returns a snapshot slice so callers may mutate the underlying set
// (e.g. by running effects that re-track) while iterating.
func (d *Dep) Effects() []*Effect {
	return d.effects.ToSlice()
}
