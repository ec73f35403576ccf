package task

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ygrebnov/task/metrics"
)

// State is the externally observable lifecycle of a Task.
type State uint32

const (
	StateRunning State = iota
	StateSuccess
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task is the consumer-side handle for a value that may not exist yet. The
// zero value is not usable; build one with Success, Failed, Cancelled,
// StartBlocking, Delay, Waiting, CancelAfter, FailAfter, SucceedAfter,
// Chain, or ChainAsync.
type Task[T any] struct {
	st        atomic.Uint32
	result    T
	failure   error
	cause     *CancelledError
	consumed  atomic.Bool
	createdAt time.Time

	awaiter      *Awaiter
	onSuccess    *SubscriptionHandler[T]
	onFailure    *SubscriptionHandler[error]
	onCancelled  *SubscriptionHandler[*CancelledError]
	onCompletion *SubscriptionHandler[*Task[T]]
}

func newTask[T any]() *Task[T] {
	Metrics().UpDownCounter("task.inflight").Add(1)
	return &Task[T]{
		createdAt:    time.Now(),
		awaiter:      NewAwaiter(),
		onSuccess:    NewSubscriptionHandler[T](),
		onFailure:    NewSubscriptionHandler[error](),
		onCancelled:  NewSubscriptionHandler[*CancelledError](),
		onCompletion: NewSubscriptionHandler[*Task[T]](),
	}
}

func (t *Task[T]) rawState() state {
	return state(t.st.Load())
}

// waitValid spins past a transient CANCELLING/SUCCEEDING/FAILING reading:
// the window between the two halves of the termination protocol is bounded
// to a couple of atomic writes with no syscalls and no user code, so a tight
// spin resolves it almost immediately.
func (t *Task[T]) waitValid(s state) state {
	for !s.isValid() {
		s = t.rawState()
	}
	return s
}

// GetState returns the task's current lifecycle state.
func (t *Task[T]) GetState() State {
	return t.waitValid(t.rawState()).external()
}

// IsRunning reports whether the task has not yet reached a terminal state.
func (t *Task[T]) IsRunning() bool { return t.rawState() == stateWaiting }

// IsDone reports whether the task has reached any terminal state.
func (t *Task[T]) IsDone() bool { return t.waitValid(t.rawState()).isDone() }

// IsSuccessful reports whether the task finished in state SUCCESS.
func (t *Task[T]) IsSuccessful() bool { return t.waitValid(t.rawState()).isSuccessful() }

// IsFailed reports whether the task finished in state FAILED.
func (t *Task[T]) IsFailed() bool { return t.waitValid(t.rawState()).isFailed() }

// IsCancelled reports whether the task finished in state CANCELLED.
func (t *Task[T]) IsCancelled() bool { return t.waitValid(t.rawState()).isCancelled() }

// complete runs the shared two-phase termination protocol for one outcome:
// CAS into the transient state, publish the outcome's field, signal every
// waiter, CAS into the stable state, then fire the outcome-specific and
// completion subscription handlers. It returns false if the task was no
// longer WAITING when this call tried to claim it.
func (t *Task[T]) complete(ing, stable state, publish func(), fire func()) bool {
	if !t.st.CompareAndSwap(uint32(stateWaiting), uint32(ing)) {
		return false
	}
	publish()
	t.awaiter.SignalAll(masterPermitKey)
	if !t.st.CompareAndSwap(uint32(ing), uint32(stable)) {
		panicInvariant("task: transient -> stable CAS failed")
	}
	recordCompletion(stable, t.createdAt)
	fire()
	t.onCompletion.Execute(func() *Task[T] { return t })
	return true
}

// recordCompletion instruments every terminal transition through the
// ambient metrics Provider: a monotonic counter keyed by outcome, an
// in-flight gauge decremented back to the count newTask incremented, and a
// histogram of wall-clock time from construction to termination.
func recordCompletion(stable state, createdAt time.Time) {
	outcome := "success"
	switch {
	case stable.isFailed():
		outcome = "failed"
	case stable.isCancelled():
		outcome = "cancelled"
	}
	Metrics().Counter("task.completed", metrics.WithAttributes(map[string]string{"outcome": outcome})).Add(1)
	Metrics().UpDownCounter("task.inflight").Add(-1)
	Metrics().Histogram("task.duration_seconds").Record(time.Since(createdAt).Seconds())
}

func (t *Task[T]) succeed(v T) bool {
	return t.complete(stateSucceeding, stateSuccess,
		func() { t.result = v },
		func() { t.onSuccess.Execute(func() T { return v }) },
	)
}

func (t *Task[T]) fail(err error) bool {
	return t.complete(stateFailing, stateFailed,
		func() { t.failure = err },
		func() { t.onFailure.Execute(func() error { return err }) },
	)
}

func (t *Task[T]) cancelWith(cause *CancelledError) bool {
	return t.complete(stateCancelling, stateCancelled,
		func() { t.cause = cause },
		func() { t.onCancelled.Execute(func() *CancelledError { return cause }) },
	)
}

// Cancel unconditionally attempts to move the task to CANCELLED, carrying
// payload as the cancellation cause. It reports whether this call won the
// race to complete the task.
func (t *Task[T]) Cancel(payload any) bool {
	return t.cancelWith(&CancelledError{Payload: payload})
}

// CancelIfRunning is Cancel restricted to the common case: every task this
// module builds is already running from the moment it is constructed, so
// this is equivalent to Cancel.
func (t *Task[T]) CancelIfRunning(payload any) bool {
	return t.Cancel(payload)
}

// CancelIfNotStarted never succeeds: a blocking task is always already
// running once constructed, matching statePrevented's reservation for a
// startable task variant this module does not implement.
func (t *Task[T]) CancelIfNotStarted(_ any) bool {
	return false
}

// CheckFailure returns the task's stored failure the first time any caller
// observes a FAILED task through CheckFailure or CheckSuccess; every later
// call returns nil. Non-FAILED tasks always return nil.
func (t *Task[T]) CheckFailure() error {
	s := t.waitValid(t.rawState())
	if !s.isFailed() {
		return nil
	}
	if t.consumed.CompareAndSwap(false, true) {
		return t.failure
	}
	return nil
}

// GetFailure returns the task's stored failure without consuming it; it can
// be read any number of times. Non-FAILED tasks always return nil.
func (t *Task[T]) GetFailure() error {
	s := t.waitValid(t.rawState())
	if !s.isFailed() {
		return nil
	}
	return t.failure
}

// CheckSuccess raises the task's outcome as an error unless the task is
// SUCCESS: a TaskFailureError wrapping the stored cause if FAILED, the
// cancellation cause if CANCELLED, nil otherwise. Like CheckFailure, the
// FAILED branch only returns an error to the first caller to observe it.
func (t *Task[T]) CheckSuccess() error {
	s := t.waitValid(t.rawState())
	switch {
	case s.isFailed():
		if t.consumed.CompareAndSwap(false, true) {
			return &TaskFailureError{Cause: t.failure}
		}
		return nil
	case s.isCancelled():
		return t.cause
	default:
		return nil
	}
}

// HasUnconsumedException reports whether the task is FAILED and neither
// CheckFailure nor CheckSuccess has yet consumed the failure.
func (t *Task[T]) HasUnconsumedException() bool {
	s := t.waitValid(t.rawState())
	return s.isFailed() && !t.consumed.Load()
}

// GetFinishedResult returns the task's result and true only when the task is
// SUCCESS; it is the zero value and false in every other state, including
// while running.
func (t *Task[T]) GetFinishedResult() (T, bool) {
	s := t.waitValid(t.rawState())
	if s.isSuccessful() {
		return t.result, true
	}
	var zero T
	return zero, false
}

// GetResult returns the task's result field directly. It is only meaningful
// once the task is SUCCESS; callers racing with completion should use
// GetFinishedResult or check GetState first.
func (t *Task[T]) GetResult() T {
	return t.result
}

// CancellationCause returns the payload-bearing error attached by the
// Cancel call that completed this task, if it is CANCELLED.
func (t *Task[T]) CancellationCause() (*CancelledError, bool) {
	s := t.waitValid(t.rawState())
	if !s.isCancelled() {
		return nil, false
	}
	return t.cause, true
}

// CheckFailureAs behaves like Task[T].CheckFailure, but only consumes and
// returns the failure if errors.As can extract it as E. A type parameter
// cannot be added to a method, so this is a package function.
func CheckFailureAs[T any, E error](t *Task[T]) (E, bool) {
	var zero E
	s := t.waitValid(t.rawState())
	if !s.isFailed() {
		return zero, false
	}
	var typed E
	if !errors.As(t.failure, &typed) {
		return zero, false
	}
	if t.consumed.CompareAndSwap(false, true) {
		return typed, true
	}
	return zero, false
}

// GetFailureAs is CheckFailureAs without consuming the failure.
func GetFailureAs[T any, E error](t *Task[T]) (E, bool) {
	var zero E
	s := t.waitValid(t.rawState())
	if !s.isFailed() {
		return zero, false
	}
	var typed E
	if !errors.As(t.failure, &typed) {
		return zero, false
	}
	return typed, true
}

// Await blocks until the task is done or ctx is cancelled. Go has no
// thread-interrupt primitive, so ctx cancellation stands in for it: a
// cancelled ctx yields ErrInterrupted.
func (t *Task[T]) Await(ctx context.Context) error {
	if t.IsDone() {
		return nil
	}
	_, err := t.awaiter.Await(ctx, masterPermitKey)
	return err
}

// AwaitTimeout blocks until the task is done or timeout elapses
// (ErrTimeout), honoring ctx cancellation (ErrInterrupted) meanwhile.
func (t *Task[T]) AwaitTimeout(ctx context.Context, timeout time.Duration) error {
	if t.IsDone() {
		return nil
	}
	_, err := t.awaiter.AwaitTimeout(ctx, masterPermitKey, timeout)
	return err
}

// AwaitUninterruptibly blocks until the task is done. It cannot be woken by
// anything else: there is no Go equivalent of a thread interrupt to honor.
func (t *Task[T]) AwaitUninterruptibly() {
	if t.IsDone() {
		return
	}
	t.awaiter.AwaitUninterruptibly(masterPermitKey)
}

// AwaitUninterruptiblyTimeout blocks until the task is done or timeout
// elapses (ErrTimeout).
func (t *Task[T]) AwaitUninterruptiblyTimeout(timeout time.Duration) error {
	if t.IsDone() {
		return nil
	}
	_, err := t.awaiter.AwaitUninterruptiblyTimeout(masterPermitKey, timeout)
	return err
}

// AwaitCondition blocks until the task is done or cond cancels the wait. In
// the latter case it returns cond's cancellation cause. Binding cond to this
// wait fails with ErrOutParameterBound if cond is already bound elsewhere.
func (t *Task[T]) AwaitCondition(ctx context.Context, cond *CancelCondition) error {
	if !cond.SetupAction(func(any) bool {
		t.awaiter.SignalAll(any(cond))
		return true
	}) {
		return ErrOutParameterBound
	}
	if t.IsDone() {
		return nil
	}
	if cond.IsCancelled() {
		cause, _ := cond.CancellationCause()
		return cause
	}
	if _, err := t.awaiter.Await(ctx, any(cond)); err != nil {
		return err
	}
	if t.IsDone() {
		return nil
	}
	cause, _ := cond.CancellationCause()
	return cause
}

// AwaitConditionTimeout is AwaitCondition with an additional ErrTimeout
// deadline.
func (t *Task[T]) AwaitConditionTimeout(ctx context.Context, cond *CancelCondition, timeout time.Duration) error {
	if !cond.SetupAction(func(any) bool {
		t.awaiter.SignalAll(any(cond))
		return true
	}) {
		return ErrOutParameterBound
	}
	if t.IsDone() {
		return nil
	}
	if cond.IsCancelled() {
		cause, _ := cond.CancellationCause()
		return cause
	}
	if _, err := t.awaiter.AwaitTimeout(ctx, any(cond), timeout); err != nil {
		return err
	}
	if t.IsDone() {
		return nil
	}
	cause, _ := cond.CancellationCause()
	return cause
}

// AwaitUninterruptiblyCondition is AwaitCondition without ctx cancellation.
func (t *Task[T]) AwaitUninterruptiblyCondition(cond *CancelCondition) error {
	if !cond.SetupAction(func(any) bool {
		t.awaiter.SignalAll(any(cond))
		return true
	}) {
		return ErrOutParameterBound
	}
	if t.IsDone() {
		return nil
	}
	if cond.IsCancelled() {
		cause, _ := cond.CancellationCause()
		return cause
	}
	t.awaiter.AwaitUninterruptibly(any(cond))
	if t.IsDone() {
		return nil
	}
	cause, _ := cond.CancellationCause()
	return cause
}

// AwaitUninterruptiblyConditionTimeout combines AwaitUninterruptiblyCondition
// with an ErrTimeout deadline.
func (t *Task[T]) AwaitUninterruptiblyConditionTimeout(cond *CancelCondition, timeout time.Duration) error {
	if !cond.SetupAction(func(any) bool {
		t.awaiter.SignalAll(any(cond))
		return true
	}) {
		return ErrOutParameterBound
	}
	if t.IsDone() {
		return nil
	}
	if cond.IsCancelled() {
		cause, _ := cond.CancellationCause()
		return cause
	}
	if _, err := t.awaiter.AwaitUninterruptiblyTimeout(any(cond), timeout); err != nil {
		return err
	}
	if t.IsDone() {
		return nil
	}
	cause, _ := cond.CancellationCause()
	return cause
}

// OnSuccess subscribes fn to run with the result once the task reaches
// SUCCESS, synchronously on the calling goroutine if it already has.
func (t *Task[T]) OnSuccess(fn func(T)) { t.onSuccess.Subscribe(fn) }

// OnSuccessAsync is OnSuccess, dispatched through exec instead of run
// inline.
func (t *Task[T]) OnSuccessAsync(fn func(T), exec Executor) {
	t.onSuccess.Subscribe(func(v T) { exec.Submit(func() { fn(v) }) })
}

// OnFailure subscribes fn to run with the failure once the task reaches
// FAILED.
func (t *Task[T]) OnFailure(fn func(error)) { t.onFailure.Subscribe(fn) }

// OnFailureAsync is OnFailure dispatched through exec.
func (t *Task[T]) OnFailureAsync(fn func(error), exec Executor) {
	t.onFailure.Subscribe(func(e error) { exec.Submit(func() { fn(e) }) })
}

// OnCancelled subscribes fn to run with the cancellation cause once the task
// reaches CANCELLED.
func (t *Task[T]) OnCancelled(fn func(*CancelledError)) { t.onCancelled.Subscribe(fn) }

// OnCancelledAsync is OnCancelled dispatched through exec.
func (t *Task[T]) OnCancelledAsync(fn func(*CancelledError), exec Executor) {
	t.onCancelled.Subscribe(func(c *CancelledError) { exec.Submit(func() { fn(c) }) })
}

// OnCompletion subscribes fn to run with the task itself once it reaches any
// terminal state, after the outcome-specific subscriber list has run.
func (t *Task[T]) OnCompletion(fn func(*Task[T])) { t.onCompletion.Subscribe(fn) }

// OnCompletionAsync is OnCompletion dispatched through exec.
func (t *Task[T]) OnCompletionAsync(fn func(*Task[T]), exec Executor) {
	t.onCompletion.Subscribe(func(tt *Task[T]) { exec.Submit(func() { fn(tt) }) })
}
