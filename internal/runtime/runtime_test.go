package runtime

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vireolabs/reactor/internal/reactive"
)

func TestRuntime_QueuedEffectBatchesMultipleWritesIntoOneRerun(t *testing.T) {
	r := New(Options{})
	count := reactive.NewSignal(r.Graph, 0)

	var runs atomic.Int64
	var lastSeen int
	r.NewEffect(func() any {
		runs.Add(1)
		lastSeen = count.Read()
		return nil
	}, reactive.EffectOptions{})

	r.Batch(func() {
		count.Write(1)
		count.Write(2)
		count.Write(3)
	})

	r.NextTick(nil).Wait()

	assert.Equal(t, int64(2), runs.Load()) // initial run + exactly one batched rerun
	assert.Equal(t, 3, lastSeen)
}

func TestRuntime_BatchDefersRerunUntilAfterFnReturns(t *testing.T) {
	r := New(Options{})
	count := reactive.NewSignal(r.Graph, 0)

	var runs atomic.Int64
	r.NewEffect(func() any {
		runs.Add(1)
		count.Read()
		return nil
	}, reactive.EffectOptions{})

	r.Batch(func() {
		count.Write(1)
		assert.Equal(t, int64(1), runs.Load(), "rerun must not happen until Batch's fn returns")
	})

	assert.Equal(t, int64(2), runs.Load())
}

func TestRuntime_LazyEffectSkipsInitialRunAndIsNotAutoQueued(t *testing.T) {
	r := New(Options{})
	ran := false

	eff := r.NewEffect(func() any {
		ran = true
		return nil
	}, reactive.EffectOptions{Lazy: true})

	assert.False(t, ran)
	eff.Run()
	assert.True(t, ran)
}

func TestRuntime_StoppedEffectDoesNotRerunAfterQueuedBeforeStop(t *testing.T) {
	r := New(Options{})
	count := reactive.NewSignal(r.Graph, 0)

	var runs atomic.Int64
	eff := r.NewEffect(func() any {
		runs.Add(1)
		count.Read()
		return nil
	}, reactive.EffectOptions{})

	r.Batch(func() {
		count.Write(1) // queues a rerun job
		reactive.Stop(eff)
	})

	r.NextTick(nil).Wait()

	assert.Equal(t, int64(1), runs.Load(), "the queued job checks Active() live and must not run after Stop")
}

func TestRuntime_OwnerStackPushPopCurrent(t *testing.T) {
	r := New(Options{})
	assert.Nil(t, r.CurrentOwner())

	type owner struct{ name string }
	a := &owner{"a"}
	b := &owner{"b"}

	r.PushOwner(a)
	assert.Equal(t, a, r.CurrentOwner())

	r.PushOwner(b)
	assert.Equal(t, b, r.CurrentOwner())

	r.PopOwner()
	assert.Equal(t, a, r.CurrentOwner())

	r.PopOwner()
	assert.Nil(t, r.CurrentOwner())

	r.PopOwner() // popping past empty is a no-op, not a panic
	assert.Nil(t, r.CurrentOwner())
}

func TestCurrent_IsolatedPerGoroutine(t *testing.T) {
	a := Current()
	b := Current()
	assert.Same(t, a, b, "same goroutine must see the same runtime")

	done := make(chan *Runtime)
	go func() {
		done <- Current()
	}()
	other := <-done

	assert.NotSame(t, a, other, "a different goroutine must get its own runtime")
}
