// Package scheduler implements the three-phase, microtask-batched flush
// queue: pre-callbacks, priority-ordered main jobs, then post-callbacks,
// draining to a fixed point before the caller-visible microtask completes.
package scheduler

import (
	"log/slog"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// RecursionLimit bounds how many times a single job or callback may run
// within one drain before the scheduler gives up on it (dev mode only).
const RecursionLimit = 100

// ErrorCode classifies where an error originated, mirroring the
// callWithErrorHandling collaborator's error codes.
type ErrorCode int

const (
	ErrScheduler ErrorCode = iota
)

// ErrorHandler routes a panic recovered from a job or callback. The default
// (nil) handler logs via slog and does not re-panic.
type ErrorHandler func(err any, code ErrorCode)

// DrainObserver receives scheduler lifecycle notifications: a devtools sink
// attaches one to mirror drain activity onto a dashboard or session log
// without the scheduler package depending on devtools.
type DrainObserver interface {
	// OnDrainStart fires once, when a drain is armed on an otherwise idle
	// scheduler (inside a batch scope that is before the drain runs), not on
	// each internal fixed-point recursion.
	OnDrainStart()
	// OnDrainEnd fires once a drain has fully settled, reporting how many
	// jobs and callbacks it ran in total, across every recursion.
	OnDrainEnd(jobs, callbacks int)
	// OnRecursionLimitExceeded fires whenever a job or callback is skipped
	// for exceeding RecursionLimit within the current drain.
	OnRecursionLimitExceeded(kind, owner string)
}

// Options configures a Scheduler.
type Options struct {
	DevMode       bool
	ErrorHandler  ErrorHandler
	DrainObserver DrainObserver
}

// Scheduler owns the queue state described in the distilled spec's Queue
// State section: the sorted main queue, the pre/post callback backlogs,
// the flush lifecycle flags, and the recursion counters used in dev mode.
type Scheduler struct {
	mu sync.Mutex

	queue      []*Job
	flushIndex int

	pendingPre    []*Callback
	pendingPreSet mapset.Set[*Callback]

	pendingPost    []*Callback
	pendingPostSet mapset.Set[*Callback]
	activePost     []*Callback

	// pendingPostUser/activePostUser are the second, user-visible settle
	// tier: drained only after the render tier above has reached a fixed
	// point, mirroring the source runtime's EffectRender-before-EffectUser
	// ordering.
	pendingPostUser    []*Callback
	pendingPostUserSet mapset.Set[*Callback]
	activePostUser     []*Callback

	currentPreFlushParentJob *Job

	isFlushing     bool
	isFlushPending bool
	currentDone    chan struct{}

	// batchDepth counts nested Batch scopes. A drain armed while batchDepth
	// is above zero stays pending — flushJobs only actually runs once the
	// outermost EndBatch drops it back to zero.
	batchDepth int

	devMode        bool
	jobCounts      map[*Job]int
	preCounts      map[*Callback]int
	postCounts     map[*Callback]int
	postUserCounts map[*Callback]int
	errorHandler   ErrorHandler

	observer       DrainObserver
	drainJobs      int
	drainCallbacks int
}

func New(opts Options) *Scheduler {
	return &Scheduler{
		flushIndex:         -1,
		pendingPreSet:      mapset.NewThreadUnsafeSet[*Callback](),
		pendingPostSet:     mapset.NewThreadUnsafeSet[*Callback](),
		pendingPostUserSet: mapset.NewThreadUnsafeSet[*Callback](),
		devMode:            opts.DevMode,
		errorHandler:       opts.ErrorHandler,
		observer:           opts.DrainObserver,
	}
}

// BeginBatch opens a batch scope: any drain armed while at least one scope
// is open stays pending instead of running immediately, so a burst of writes
// spread across multiple statements on the calling goroutine still coalesces
// into a single flush. Scopes nest; call EndBatch once per BeginBatch.
func (s *Scheduler) BeginBatch() {
	s.mu.Lock()
	s.batchDepth++
	s.mu.Unlock()
}

// EndBatch closes one batch scope. Once the outermost scope closes, a drain
// left pending by writes inside the batch runs synchronously on this
// goroutine before EndBatch returns.
func (s *Scheduler) EndBatch() {
	s.mu.Lock()
	if s.batchDepth > 0 {
		s.batchDepth--
	}
	runNow := s.batchDepth == 0 && s.isFlushPending && !s.isFlushing
	s.mu.Unlock()

	if runNow {
		s.flushJobs()
	}
}

// QueueJob inserts job into the main queue at its sorted position, unless
// it's already present within the applicable dedup window or is the job
// currently draining its own pre-flush callbacks.
func (s *Scheduler) QueueJob(job *Job) {
	s.mu.Lock()

	if job == s.currentPreFlushParentJob {
		s.mu.Unlock()
		return
	}

	start := s.flushIndex
	if s.isFlushing && job.AllowRecurse {
		start = s.flushIndex + 1
	}
	if start < 0 {
		start = 0
	}

	if s.containsFrom(job, start) {
		s.mu.Unlock()
		return
	}

	pos := sort.Search(len(s.queue), func(i int) bool {
		return compareID(s.queue[i], job) > 0
	})

	s.queue = append(s.queue, nil)
	copy(s.queue[pos+1:], s.queue[pos:])
	s.queue[pos] = job

	runNow := s.armDrain()
	s.mu.Unlock()
	if runNow {
		s.flushJobs()
	}
}

func (s *Scheduler) containsFrom(job *Job, start int) bool {
	for i := start; i < len(s.queue); i++ {
		if s.queue[i] == job {
			return true
		}
	}
	return false
}

// InvalidateJob removes job from the queue if it sits strictly after the
// currently executing index. A job at or before flushIndex, or not present
// at all, is left alone (a silent no-op).
func (s *Scheduler) InvalidateJob(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, j := range s.queue {
		if j == job {
			idx = i
			break
		}
	}
	if idx == -1 || idx <= s.flushIndex {
		return
	}
	s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
}

// QueuePreFlushCb appends cb to the pre-flush backlog, deduping by pointer
// identity, and arms a drain.
func (s *Scheduler) QueuePreFlushCb(cb *Callback) {
	s.mu.Lock()
	if !s.pendingPreSet.Contains(cb) {
		s.pendingPre = append(s.pendingPre, cb)
		s.pendingPreSet.Add(cb)
	}
	runNow := s.armDrain()
	s.mu.Unlock()
	if runNow {
		s.flushJobs()
	}
}

// QueuePostFlushCb appends a single cb to the post-flush backlog, deduping
// by pointer identity.
func (s *Scheduler) QueuePostFlushCb(cb *Callback) {
	s.mu.Lock()
	if !s.pendingPostSet.Contains(cb) {
		s.pendingPost = append(s.pendingPost, cb)
		s.pendingPostSet.Add(cb)
	}
	runNow := s.armDrain()
	s.mu.Unlock()
	if runNow {
		s.flushJobs()
	}
}

// QueuePostFlushUserCb appends cb to the user-visible settle tier, which
// only starts draining once the render tier (QueuePostFlushCb) has reached
// a fixed point.
func (s *Scheduler) QueuePostFlushUserCb(cb *Callback) {
	s.mu.Lock()
	if !s.pendingPostUserSet.Contains(cb) {
		s.pendingPostUser = append(s.pendingPostUser, cb)
		s.pendingPostUserSet.Add(cb)
	}
	runNow := s.armDrain()
	s.mu.Unlock()
	if runNow {
		s.flushJobs()
	}
}

// QueuePostFlushCbs appends a batch of already-deduped callbacks, bypassing
// the dedup set entirely (the distilled spec's "bypass dedup, it is a batch
// of component hooks already deduped upstream").
func (s *Scheduler) QueuePostFlushCbs(cbs []*Callback) {
	if len(cbs) == 0 {
		return
	}
	s.mu.Lock()
	s.pendingPost = append(s.pendingPost, cbs...)
	runNow := s.armDrain()
	s.mu.Unlock()
	if runNow {
		s.flushJobs()
	}
}

// armDrain marks a drain pending and reports whether the caller should run
// flushJobs synchronously right now, once it has released s.mu. Go has no
// native microtask queue: rather than hand the drain to a second goroutine
// (which would race the calling goroutine's still-unwinding writes against
// the drain's reads of the same Signal/Computed/tracker state), the drain
// always runs on whichever goroutine's write armed it. A Batch scope defers
// that run — see BeginBatch — so a multi-statement burst still coalesces
// into one drain the way the distilled spec's "exactly one microtask"
// invariant requires. Must be called with s.mu held.
func (s *Scheduler) armDrain() bool {
	if s.isFlushing || s.isFlushPending {
		return false
	}
	s.isFlushPending = true
	if s.currentDone == nil {
		s.currentDone = make(chan struct{})
	}
	s.drainJobs = 0
	s.drainCallbacks = 0
	if s.observer != nil {
		s.observer.OnDrainStart()
	}
	return s.batchDepth == 0
}

// NextTick returns a future that resolves after the next (or currently
// in-flight) drain completes, optionally chaining fn onto it.
func (s *Scheduler) NextTick(fn func()) *Future {
	s.mu.Lock()
	done := s.currentDone
	s.mu.Unlock()

	var f *Future
	if done == nil {
		f = resolved()
	} else {
		f = &Future{done: done}
	}
	return f.Then(fn)
}

// flushJobs is the drain algorithm: pre-phase, sort, main phase, post-phase,
// recursing to a fixed point if anything was enqueued along the way.
func (s *Scheduler) flushJobs() {
	s.mu.Lock()
	s.isFlushPending = false
	s.isFlushing = true
	if s.devMode {
		s.jobCounts = make(map[*Job]int)
		s.preCounts = make(map[*Callback]int)
		s.postCounts = make(map[*Callback]int)
		s.postUserCounts = make(map[*Callback]int)
	}
	s.mu.Unlock()

	s.flushPreFlushCbs(nil)

	s.mu.Lock()
	sort.SliceStable(s.queue, func(i, j int) bool {
		return compareID(s.queue[i], s.queue[j]) < 0
	})
	s.mu.Unlock()

	for i := 0; ; i++ {
		s.mu.Lock()
		if i >= len(s.queue) {
			s.mu.Unlock()
			break
		}
		s.flushIndex = i
		job := s.queue[i]
		devMode := s.devMode
		s.mu.Unlock()

		if !job.IsActive() {
			continue
		}

		skip := false
		if devMode {
			s.mu.Lock()
			skip = s.recurred(s.jobCounts, job, job.Owner)
			s.mu.Unlock()
		}
		if skip {
			continue
		}

		s.runProtected(job.fn, job.Owner)
		s.mu.Lock()
		s.drainJobs++
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.flushIndex = -1
	s.queue = s.queue[:0]
	s.mu.Unlock()

	s.flushPostFlushCbs()

	s.mu.Lock()
	needsMore := len(s.queue) > 0 || len(s.pendingPre) > 0 ||
		len(s.pendingPost) > 0 || len(s.pendingPostUser) > 0
	if needsMore {
		s.mu.Unlock()
		s.flushJobs()
		return
	}
	s.isFlushing = false
	done := s.currentDone
	s.currentDone = nil
	jobs, callbacks := s.drainJobs, s.drainCallbacks
	observer := s.observer
	s.mu.Unlock()

	if done != nil {
		close(done)
	}
	if observer != nil {
		observer.OnDrainEnd(jobs, callbacks)
	}
}

// FlushPreFlushCbs drains the pre-flush backlog to a fixed point. parentJob,
// when set (a main-phase job explicitly flushing its own pre-callbacks),
// is recorded so QueueJob rejects that same job re-queueing itself during
// the drain.
func (s *Scheduler) FlushPreFlushCbs(parentJob *Job) {
	s.flushPreFlushCbs(parentJob)
}

func (s *Scheduler) flushPreFlushCbs(parentJob *Job) {
	s.mu.Lock()
	s.currentPreFlushParentJob = parentJob
	if s.devMode && s.preCounts == nil {
		s.preCounts = make(map[*Callback]int)
	}
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if len(s.pendingPre) == 0 {
			s.mu.Unlock()
			break
		}
		cbs := s.pendingPre
		s.pendingPre = nil
		s.pendingPreSet = mapset.NewThreadUnsafeSet[*Callback]()
		devMode := s.devMode
		s.mu.Unlock()

		for _, cb := range cbs {
			skip := false
			if devMode {
				s.mu.Lock()
				skip = s.recurred(s.preCounts, cb, cb.Owner)
				s.mu.Unlock()
			}
			if !skip {
				s.runProtected(cb.fn, cb.Owner)
				s.mu.Lock()
				s.drainCallbacks++
				s.mu.Unlock()
			}
		}
	}

	s.mu.Lock()
	s.currentPreFlushParentJob = nil
	s.mu.Unlock()
}

// FlushPostFlushCbs drains the post-flush backlog, merging into an
// already-draining snapshot in place if this call is re-entrant (a post
// callback that enqueues another post callback).
func (s *Scheduler) FlushPostFlushCbs() {
	s.flushPostFlushCbs()
}

// flushPostFlushCbs drains the render tier to a fixed point, then — only
// once it's empty — drains the user tier the same way. A user-tier callback
// that enqueues a new render-tier callback gets one more render/user round,
// so neither tier can observe the other still dirty.
func (s *Scheduler) flushPostFlushCbs() {
	for {
		ranRender := s.drainPostTier(tierRender)
		ranUser := s.drainPostTier(tierUser)
		if !ranRender && !ranUser {
			return
		}
	}
}

type postTier int

const (
	tierRender postTier = iota
	tierUser
)

// drainPostTier runs one tier's backlog to its own fixed point and reports
// whether it did any work at all.
func (s *Scheduler) drainPostTier(tier postTier) bool {
	ran := false
	for s.snapshotPostTier(tier) {
		ran = true
		s.runPostTier(tier)
	}
	return ran
}

// snapshotPostTier moves tier's pending backlog into its active slice
// (merging in place if a drain of this same tier is already underway), and
// reports whether runPostTier needs to be called.
func (s *Scheduler) snapshotPostTier(tier postTier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, active := s.tierSlices(tier)
	if len(*pending) == 0 {
		return false
	}

	dedup := *pending
	*pending = nil
	s.resetTierSet(tier)

	if *active != nil {
		*active = append(*active, dedup...)
		return false
	}

	*active = dedup
	sort.SliceStable(*active, func(i, j int) bool {
		return compareCallbackID((*active)[i], (*active)[j]) < 0
	})
	if s.devMode {
		s.ensureTierCounts(tier)
	}
	return true
}

func (s *Scheduler) tierSlices(tier postTier) (*[]*Callback, *[]*Callback) {
	if tier == tierUser {
		return &s.pendingPostUser, &s.activePostUser
	}
	return &s.pendingPost, &s.activePost
}

func (s *Scheduler) resetTierSet(tier postTier) {
	if tier == tierUser {
		s.pendingPostUserSet = mapset.NewThreadUnsafeSet[*Callback]()
		return
	}
	s.pendingPostSet = mapset.NewThreadUnsafeSet[*Callback]()
}

func (s *Scheduler) ensureTierCounts(tier postTier) {
	if tier == tierUser {
		if s.postUserCounts == nil {
			s.postUserCounts = make(map[*Callback]int)
		}
		return
	}
	if s.postCounts == nil {
		s.postCounts = make(map[*Callback]int)
	}
}

func (s *Scheduler) tierCounts(tier postTier) map[*Callback]int {
	if tier == tierUser {
		return s.postUserCounts
	}
	return s.postCounts
}

// runPostTier runs active (tier's freshly sorted snapshot) to completion,
// re-reading its length each iteration so re-entrant appends made by a
// still-running callback of the same tier are picked up.
func (s *Scheduler) runPostTier(tier postTier) {
	_, activePtr := s.tierSlices(tier)

	for i := 0; ; i++ {
		s.mu.Lock()
		if i >= len(*activePtr) {
			s.mu.Unlock()
			break
		}
		cb := (*activePtr)[i]
		devMode := s.devMode
		s.mu.Unlock()

		skip := false
		if devMode {
			s.mu.Lock()
			skip = s.recurred(s.tierCounts(tier), cb, cb.Owner)
			s.mu.Unlock()
		}
		if !skip {
			s.runProtected(cb.fn, cb.Owner)
			s.mu.Lock()
			s.drainCallbacks++
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	*activePtr = nil
	s.mu.Unlock()
}

// recurred increments key's per-drain invocation counter and reports
// whether it has now exceeded RecursionLimit. Must be called with s.mu held.
func (s *Scheduler) recurred(counts any, key any, owner string) bool {
	switch c := counts.(type) {
	case map[*Job]int:
		j := key.(*Job)
		c[j]++
		if c[j] > RecursionLimit {
			slog.Warn("scheduler: job exceeded recursion limit, skipping", "owner", owner)
			if s.observer != nil {
				s.observer.OnRecursionLimitExceeded("job", owner)
			}
			return true
		}
	case map[*Callback]int:
		cb := key.(*Callback)
		c[cb]++
		if c[cb] > RecursionLimit {
			slog.Warn("scheduler: callback exceeded recursion limit, skipping", "owner", owner)
			if s.observer != nil {
				s.observer.OnRecursionLimitExceeded("callback", owner)
			}
			return true
		}
	}
	return false
}

// runProtected isolates a panic from one job/callback so it can't abort the
// rest of the drain, routing it to the configured ErrorHandler under the
// SCHEDULER error code.
func (s *Scheduler) runProtected(fn func(), owner string) {
	defer func() {
		if r := recover(); r != nil {
			if s.errorHandler != nil {
				s.errorHandler(r, ErrScheduler)
				return
			}
			slog.Error("scheduler: job panicked", "error", r, "owner", owner)
		}
	}()
	fn()
}
