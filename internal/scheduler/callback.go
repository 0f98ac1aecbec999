package scheduler

// Callback is a pre- or post-flush hook. Identity for dedup purposes is the
// pointer itself, so callers who want dedup across repeated Queue*Cb calls
// must reuse the same *Callback rather than constructing a fresh one each
// time — the Go analogue of Vue re-registering the same function reference.
type Callback struct {
	ID    *int64 // used only for post-callback ordering; nil is fine for pre
	Owner string
	fn    func()
}

func NewCallback(fn func()) *Callback {
	return &Callback{fn: fn}
}

func compareCallbackID(a, b *Callback) int {
	switch {
	case a.ID == nil && b.ID == nil:
		return 0
	case a.ID == nil:
		return 1
	case b.ID == nil:
		return -1
	case *a.ID < *b.ID:
		return -1
	case *a.ID > *b.ID:
		return 1
	default:
		return 0
	}
}
