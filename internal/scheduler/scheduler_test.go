package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idOf(n int64) *int64 { return &n }

func TestScheduler_JobsRunInIDOrderNilSortsLast(t *testing.T) {
	s := New(Options{})

	var mu sync.Mutex
	var order []string

	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	s.BeginBatch()
	s.QueueJob(NewJob(idOf(3), record("c")))
	s.QueueJob(NewJob(nil, record("none")))
	s.QueueJob(NewJob(idOf(1), record("a")))
	s.QueueJob(NewJob(idOf(2), record("b")))
	s.EndBatch()

	s.NextTick(nil).Wait()

	assert.Equal(t, []string{"a", "b", "c", "none"}, order)
}

func TestScheduler_QueueJobDedupsWithinSameDrain(t *testing.T) {
	s := New(Options{})

	var runs atomic.Int64
	job := NewJob(idOf(1), func() { runs.Add(1) })

	s.BeginBatch()
	s.QueueJob(job)
	s.QueueJob(job) // same job queued twice before the drain starts
	s.EndBatch()

	s.NextTick(nil).Wait()

	assert.Equal(t, int64(1), runs.Load())
}

func TestScheduler_InvalidateJobAfterFlushIndexRemovesIt(t *testing.T) {
	s := New(Options{})

	var ran atomic.Bool
	target := NewJob(idOf(2), func() { ran.Store(true) })

	// job 1 invalidates job 2 while the drain is still ahead of it.
	s.BeginBatch()
	s.QueueJob(NewJob(idOf(1), func() {
		s.InvalidateJob(target)
	}))
	s.QueueJob(target)
	s.EndBatch()

	s.NextTick(nil).Wait()

	assert.False(t, ran.Load())
}

func TestScheduler_InvalidateJobAtOrBeforeFlushIndexIsNoop(t *testing.T) {
	s := New(Options{})

	var ran atomic.Bool
	self := NewJob(idOf(1), nil)
	self.fn = func() {
		ran.Store(true)
		s.InvalidateJob(self) // too late, self is already running
	}

	s.QueueJob(self)
	s.NextTick(nil).Wait()

	assert.True(t, ran.Load())
}

func TestScheduler_SelfRequeueRequiresAllowRecurse(t *testing.T) {
	s := New(Options{})

	var runs atomic.Int64
	var job *Job
	job = NewJob(idOf(1), nil)
	job.fn = func() {
		runs.Add(1)
		if runs.Load() < 3 {
			s.QueueJob(job) // re-queues itself from within its own run
		}
	}
	job.AllowRecurse = false

	s.QueueJob(job)
	s.NextTick(nil).Wait()

	assert.Equal(t, int64(1), runs.Load())
}

func TestScheduler_AllowRecurseLetsJobRequeueItself(t *testing.T) {
	s := New(Options{})

	var runs atomic.Int64
	var job *Job
	job = NewJob(idOf(1), nil)
	job.AllowRecurse = true
	job.fn = func() {
		n := runs.Add(1)
		if n < 3 {
			s.QueueJob(job)
		}
	}

	s.QueueJob(job)
	s.NextTick(nil).Wait()

	assert.Equal(t, int64(3), runs.Load())
}

func TestScheduler_InactiveJobIsSkipped(t *testing.T) {
	s := New(Options{})

	var ran atomic.Bool
	job := NewJob(idOf(1), func() { ran.Store(true) })
	job.SetActive(false)

	s.QueueJob(job)
	s.NextTick(nil).Wait()

	assert.False(t, ran.Load())
}

func TestScheduler_PostFlushRenderTierRunsBeforeUserTier(t *testing.T) {
	s := New(Options{})

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	s.BeginBatch()
	s.QueuePostFlushUserCb(NewCallback(record("user")))
	s.QueuePostFlushCb(NewCallback(record("render")))
	s.EndBatch()

	s.NextTick(nil).Wait()

	assert.Equal(t, []string{"render", "user"}, order)
}

func TestScheduler_UserTierCallbackCanRequeueRenderTierBeforeDrainEnds(t *testing.T) {
	s := New(Options{})

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	s.BeginBatch()
	s.QueuePostFlushUserCb(NewCallback(func() {
		record("user1")()
		s.QueuePostFlushCb(NewCallback(record("render2")))
	}))
	s.QueuePostFlushCb(NewCallback(record("render1")))
	s.EndBatch()

	s.NextTick(nil).Wait()

	assert.Equal(t, []string{"render1", "user1", "render2"}, order)
}

func TestScheduler_PreFlushCbsRunBeforeMainQueue(t *testing.T) {
	s := New(Options{})

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	s.BeginBatch()
	s.QueueJob(NewJob(idOf(1), record("job")))
	s.QueuePreFlushCb(NewCallback(record("pre")))
	s.EndBatch()

	s.NextTick(nil).Wait()

	assert.Equal(t, []string{"pre", "job"}, order)
}

func TestScheduler_PreFlushCbDedupsByPointer(t *testing.T) {
	s := New(Options{})

	var runs atomic.Int64
	cb := NewCallback(func() { runs.Add(1) })

	s.BeginBatch()
	s.QueuePreFlushCb(cb)
	s.QueuePreFlushCb(cb)
	s.EndBatch()

	s.NextTick(nil).Wait()

	assert.Equal(t, int64(1), runs.Load())
}

func TestScheduler_RecursionLimitStopsRunawayJobInDevMode(t *testing.T) {
	s := New(Options{DevMode: true})

	var runs atomic.Int64
	var job *Job
	job = NewJob(idOf(1), nil)
	job.AllowRecurse = true
	job.fn = func() {
		runs.Add(1)
		s.QueueJob(job) // would spin forever without the recursion limit
	}

	s.QueueJob(job)
	s.NextTick(nil).Wait()

	assert.Equal(t, int64(RecursionLimit), runs.Load())
}

func TestScheduler_PanicInJobIsRoutedToErrorHandler(t *testing.T) {
	var caught any
	var code ErrorCode
	s := New(Options{ErrorHandler: func(err any, c ErrorCode) {
		caught = err
		code = c
	}})

	var after atomic.Bool
	s.QueueJob(NewJob(idOf(1), func() { panic("boom") }))
	s.QueueJob(NewJob(idOf(2), func() { after.Store(true) }))

	s.NextTick(nil).Wait()

	assert.Equal(t, "boom", caught)
	assert.Equal(t, ErrScheduler, code)
	assert.True(t, after.Load(), "a panicking job must not abort the rest of the drain")
}

func TestScheduler_NextTickResolvesOnlyAfterDrainCompletes(t *testing.T) {
	s := New(Options{})

	// A drain armed inside a batch stays pending until EndBatch, which here
	// runs on a separate goroutine — exercising that NextTick's future only
	// resolves once that goroutine's flush has actually finished, not merely
	// once it's been armed.
	var ran atomic.Bool
	s.BeginBatch()
	s.QueueJob(NewJob(idOf(1), func() { ran.Store(true) }))
	require.False(t, ran.Load(), "job must not run while the batch is still open")

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.EndBatch()
	}()

	s.NextTick(nil).Wait()
	assert.True(t, ran.Load())
}

func TestScheduler_NextTickWithNoPendingWorkResolvesImmediately(t *testing.T) {
	s := New(Options{})

	done := make(chan struct{})
	s.NextTick(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NextTick never resolved with no pending work")
	}
}

func TestScheduler_BatchCoalescesMultipleJobsQueuedAcrossStatementsIntoOneDrain(t *testing.T) {
	s := New(Options{})

	var runs atomic.Int64
	s.BeginBatch()
	s.QueueJob(NewJob(idOf(1), func() { runs.Add(1) }))
	s.QueueJob(NewJob(idOf(2), func() { runs.Add(1) }))
	s.QueueJob(NewJob(idOf(3), func() { runs.Add(1) }))
	s.EndBatch()

	s.NextTick(nil).Wait()
	assert.Equal(t, int64(3), runs.Load())
}

func TestScheduler_NestedBatchOnlyFlushesWhenOutermostScopeEnds(t *testing.T) {
	s := New(Options{})

	var ran atomic.Bool
	s.BeginBatch()
	s.BeginBatch()
	s.QueueJob(NewJob(idOf(1), func() { ran.Store(true) }))
	s.EndBatch()
	assert.False(t, ran.Load(), "inner EndBatch must not flush while the outer scope is still open")

	s.EndBatch()
	assert.True(t, ran.Load())
}

type fakeDrainObserver struct {
	mu         sync.Mutex
	starts     int
	ends       int
	jobs       int
	callbacks  int
	recursions []string
}

func (f *fakeDrainObserver) OnDrainStart() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
}

func (f *fakeDrainObserver) OnDrainEnd(jobs, callbacks int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends++
	f.jobs += jobs
	f.callbacks += callbacks
}

func (f *fakeDrainObserver) OnRecursionLimitExceeded(kind, owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recursions = append(f.recursions, kind+":"+owner)
}

func TestScheduler_DrainObserverSeesOneStartAndEndPerDrainWithJobAndCallbackCounts(t *testing.T) {
	obs := &fakeDrainObserver{}
	s := New(Options{DrainObserver: obs})

	s.BeginBatch()
	s.QueueJob(NewJob(idOf(1), func() {}))
	s.QueueJob(NewJob(idOf(2), func() {}))
	s.QueuePreFlushCb(NewCallback(func() {}))
	s.EndBatch()

	s.NextTick(nil).Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.starts)
	assert.Equal(t, 1, obs.ends)
	assert.Equal(t, 2, obs.jobs)
	assert.Equal(t, 1, obs.callbacks)
}

func TestScheduler_DrainObserverIsNotifiedOfRecursionLimit(t *testing.T) {
	obs := &fakeDrainObserver{}
	s := New(Options{DevMode: true, DrainObserver: obs})

	var job *Job
	job = NewJob(idOf(1), nil)
	job.AllowRecurse = true
	job.Owner = "test-effect"
	job.fn = func() { s.QueueJob(job) }

	s.QueueJob(job)
	s.NextTick(nil).Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.NotEmpty(t, obs.recursions)
	assert.Equal(t, "job:test-effect", obs.recursions[0])
}
