package reactor

import (
	"github.com/vireolabs/reactor/internal/runtime"
	"github.com/vireolabs/reactor/internal/scheduler"
)

// SettledHandle identifies a callback registered with OnSettled or
// OnUserSettled, for reuse across repeated calls so the scheduler can dedup
// by pointer identity rather than re-queueing a fresh callback each time.
type SettledHandle struct {
	cb *scheduler.Callback
}

// OnSettled queues fn to run once the current drain's main effect queue has
// completely settled, before OnUserSettled callbacks — the render tier of a
// two-tier post-flush split. Calling OnSettled with the same handle more
// than once within a drain is deduped.
func OnSettled(fn func()) *SettledHandle {
	h := &SettledHandle{cb: scheduler.NewCallback(fn)}
	runtime.Current().Scheduler.QueuePostFlushCb(h.cb)
	return h
}

// OnUserSettled queues fn to run after every OnSettled callback from the
// same drain has finished, even if one of them enqueued more render-tier
// work in the meantime.
func OnUserSettled(fn func()) *SettledHandle {
	h := &SettledHandle{cb: scheduler.NewCallback(fn)}
	runtime.Current().Scheduler.QueuePostFlushUserCb(h.cb)
	return h
}

// Requeue re-arms h's callback for the next drain (or the current one, if
// still running) without allocating a new handle.
func (h *SettledHandle) Requeue(tier SettledTier) {
	switch tier {
	case TierUser:
		runtime.Current().Scheduler.QueuePostFlushUserCb(h.cb)
	default:
		runtime.Current().Scheduler.QueuePostFlushCb(h.cb)
	}
}

// SettledTier selects which post-flush tier a handle is requeued onto.
type SettledTier int

const (
	TierRender SettledTier = iota
	TierUser
)
