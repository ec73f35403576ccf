package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ScheduledExecutor is the process-wide scheduled executor backing Delay,
// CancelAfter, FailAfter, and SucceedAfter. Go's runtime timers
// (time.AfterFunc) already avoid a thread per pending timer; this wrapper
// additionally serializes the fired callbacks onto one worker goroutine
// instead of letting each time.AfterFunc callback run concurrently on its
// own runtime-spawned goroutine, so scheduled work observes a
// single-threaded executor.
type ScheduledExecutor struct {
	mu        sync.Mutex
	accepting bool
	forced    atomic.Bool
	work      chan func()
	stopped   chan struct{}

	errs      chan error
	forwarder *errorForwarder
	shutdown  *shutdownCoordinator
}

var (
	globalTimerOnce sync.Once
	globalTimerInst *ScheduledExecutor
)

// GlobalTimer returns the process-wide scheduled executor, creating it
// lazily on first use.
func GlobalTimer() *ScheduledExecutor {
	globalTimerOnce.Do(func() {
		globalTimerInst = newScheduledExecutor()
	})
	return globalTimerInst
}

func newScheduledExecutor() *ScheduledExecutor {
	t := &ScheduledExecutor{
		accepting: true,
		work:      make(chan func(), 64),
		stopped:   make(chan struct{}),
		errs:      make(chan error, 1),
	}
	t.forwarder = newErrorForwarder(t.errs, t.stopped)
	t.shutdown = newShutdownCoordinator(
		func() {
			t.mu.Lock()
			t.accepting = false
			t.mu.Unlock()
		},
		func() { close(t.work) },
		t.forwarder.Wait,
	)
	go t.loop()
	return t
}

// Errors returns the channel a panic escaping a scheduled job is forwarded
// to, at most one per ScheduledExecutor lifetime. Most callers never need
// to read it: a well-behaved scheduled job never panics.
func (t *ScheduledExecutor) Errors() <-chan error {
	return t.errs
}

func (t *ScheduledExecutor) loop() {
	for fn := range t.work {
		if !t.forced.Load() {
			t.runJob(fn)
		}
	}
	close(t.stopped)
}

func (t *ScheduledExecutor) runJob(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.forwarder.Forward(fmt.Errorf("%s: scheduled job panicked: %v", Namespace, r))
		}
	}()
	fn()
}

// ScheduleHandle lets a caller inspect or cancel a single scheduled job.
type ScheduleHandle struct {
	afterFunc *time.Timer
	deadline  time.Time
	fired     atomic.Bool
	cancelled atomic.Bool
}

// Remaining returns the time left until the job fires, or zero if it
// already has.
func (h *ScheduleHandle) Remaining() time.Duration {
	d := time.Until(h.deadline)
	if d < 0 {
		return 0
	}
	return d
}

// Cancel stops the job if it has not yet fired. It returns true iff this
// call is the one that prevented it from firing.
func (h *ScheduleHandle) Cancel() bool {
	if h.fired.Load() {
		return false
	}
	if !h.cancelled.CompareAndSwap(false, true) {
		return false
	}
	h.afterFunc.Stop()
	return true
}

// ScheduleOnce schedules action to run on the timer's worker goroutine after
// timeout elapses. It returns ErrExecutorRejected if the timer has begun
// shutting down.
func (t *ScheduledExecutor) ScheduleOnce(action func(), timeout time.Duration) (*ScheduleHandle, error) {
	t.mu.Lock()
	accepting := t.accepting
	t.mu.Unlock()
	if !accepting {
		Metrics().Counter("task.timer.rejected").Add(1)
		return nil, ErrExecutorRejected
	}
	Metrics().Counter("task.timer.scheduled").Add(1)

	h := &ScheduleHandle{deadline: time.Now().Add(timeout)}
	h.afterFunc = time.AfterFunc(timeout, func() {
		if h.cancelled.Load() {
			return
		}
		h.fired.Store(true)
		Metrics().Counter("task.timer.fired").Add(1)
		select {
		case t.work <- action:
		case <-t.stopped:
		}
	})
	return h, nil
}

// ScheduleOnceWithCondition is ScheduleOnce, additionally wired so that
// cancelling cond cancels the pending schedule.
func (t *ScheduledExecutor) ScheduleOnceWithCondition(action func(), cond *CancelCondition, timeout time.Duration) (*ScheduleHandle, error) {
	h, err := t.ScheduleOnce(action, timeout)
	if err != nil {
		return nil, err
	}
	if !cond.SetupAction(func(any) bool { return h.Cancel() }) {
		h.Cancel()
		return nil, ErrOutParameterBound
	}
	return h, nil
}

// IsAcceptingTasks reports whether the timer still accepts new schedules.
func (t *ScheduledExecutor) IsAcceptingTasks() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accepting
}

// Shutdown stops accepting new schedules and lets already-queued fired jobs
// run to completion. It is idempotent.
func (t *ScheduledExecutor) Shutdown() {
	t.shutdown.run()
}

// ForceShutdown is Shutdown, additionally dropping any job that was already
// queued but not yet run.
func (t *ScheduledExecutor) ForceShutdown() {
	t.forced.Store(true)
	t.Shutdown()
}

// AwaitShutdown calls Shutdown and blocks until the worker goroutine has
// drained, or ctx is done (ErrTimeout).
func (t *ScheduledExecutor) AwaitShutdown(ctx context.Context) error {
	t.Shutdown()
	select {
	case <-t.stopped:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}
