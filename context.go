package reactor

// Context is a typed slot for passing a value down an owner tree without
// threading it through every constructor in between — the reactive
// equivalent of Go's context.Context values, scoped to Owner.Run instead of
// a context.Context chain.
type Context[T any] struct {
	key any
}

// NewContext creates a context key. The zero value of T is returned by
// Value when no ancestor owner has Set it.
func NewContext[T any]() *Context[T] {
	return &Context[T]{key: new(byte)}
}

// Set stores value on the owner currently in scope. Panics if called
// outside any Owner.Run.
func (c *Context[T]) Set(value T) {
	o := currentOwner()
	if o == nil {
		panic("reactor: Context.Set called outside any Owner.Run")
	}
	o.context[c.key] = value
}

// Value walks from the in-scope owner up through its ancestors and returns
// the nearest Set value, or the zero value of T if none was ever set.
func (c *Context[T]) Value() T {
	for o := currentOwner(); o != nil; o = o.parent {
		if v, ok := o.context[c.key]; ok {
			return v.(T)
		}
	}
	var zero T
	return zero
}
