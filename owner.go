package reactor

import (
	"iter"

	"github.com/vireolabs/reactor/internal/runtime"
)

// Owner manages the lifecycle of every effect, watcher, and child owner
// created within a Run call: disposing it tears down the whole subtree.
// Computed values are not attached to an owner and are not torn down.
type Owner struct {
	cleanups []func()
	catchers []func(any)
	context  map[any]any

	parent       *Owner
	prevSibling  *Owner
	nextSibling  *Owner
	childrenHead *Owner
}

// NewOwner creates a detached owner with no parent.
func NewOwner() *Owner {
	return &Owner{context: make(map[any]any)}
}

func currentOwner() *Owner {
	o, _ := runtime.Current().CurrentOwner().(*Owner)
	return o
}

// Run executes fn with o as the in-scope owner: every effect and watcher
// created inside fn, and every child owner whose Run is called inside fn, is
// attached to o and disposed when o is. Computed values are not attached.
// A panic inside fn is routed to o's error handlers if any are registered,
// and re-panics otherwise.
func (o *Owner) Run(fn func()) {
	if parent := currentOwner(); parent != nil && parent != o {
		parent.addChild(o)
	}

	rt := runtime.Current()
	rt.PushOwner(o)
	defer rt.PopOwner()

	defer func() {
		if r := recover(); r != nil {
			if len(o.catchers) == 0 {
				panic(r)
			}
			for _, catch := range o.catchers {
				catch(r)
			}
		}
	}()

	fn()
}

func (parent *Owner) addChild(child *Owner) {
	child.parent = parent
	child.prevSibling = nil
	child.nextSibling = parent.childrenHead
	if parent.childrenHead != nil {
		parent.childrenHead.prevSibling = child
	}
	parent.childrenHead = child
}

func (o *Owner) children() iter.Seq[*Owner] {
	return func(yield func(*Owner) bool) {
		for child := o.childrenHead; child != nil; child = child.nextSibling {
			if !yield(child) {
				return
			}
		}
	}
}

// Dispose tears down every child owner, then runs this owner's own cleanup
// functions in registration order. Safe to call more than once.
func (o *Owner) Dispose() {
	o.disposeChildren()
	cleanups := o.cleanups
	o.cleanups = nil
	for _, cleanup := range cleanups {
		cleanup()
	}
}

func (o *Owner) disposeChildren() {
	for child := range o.children() {
		child.Dispose()
	}
	o.childrenHead = nil
}

// OnCleanup registers fn to run once, when o is disposed.
func (o *Owner) OnCleanup(fn func()) { o.cleanups = append(o.cleanups, fn) }

// OnError registers fn to handle a panic raised within o.Run, suppressing
// the panic from propagating further.
func (o *Owner) OnError(fn func(any)) { o.catchers = append(o.catchers, fn) }

// OnCleanup registers fn against the owner currently in scope on the
// calling goroutine, if any. A no-op outside any Owner.Run call.
func OnCleanup(fn func()) {
	if o := currentOwner(); o != nil {
		o.OnCleanup(fn)
	}
}
