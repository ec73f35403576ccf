package task

import "time"

// Success returns an already-terminal task in state SUCCESS holding v. Every
// subscriber added later fires synchronously, since the outcome has already
// happened.
func Success[T any](v T) *Task[T] {
	t := newTask[T]()
	t.st.Store(uint32(stateSuccess))
	t.result = v
	recordCompletion(stateSuccess, t.createdAt)
	t.onSuccess.Execute(func() T { return v })
	t.onCompletion.Execute(func() *Task[T] { return t })
	return t
}

// Failed returns an already-terminal task in state FAILED holding err.
func Failed[T any](err error) *Task[T] {
	t := newTask[T]()
	t.st.Store(uint32(stateFailed))
	t.failure = err
	recordCompletion(stateFailed, t.createdAt)
	t.onFailure.Execute(func() error { return err })
	t.onCompletion.Execute(func() *Task[T] { return t })
	return t
}

// Cancelled returns an already-terminal task in state CANCELLED, carrying
// payload as its cancellation cause.
func Cancelled[T any](payload any) *Task[T] {
	t := newTask[T]()
	cause := &CancelledError{Payload: payload}
	t.st.Store(uint32(stateCancelled))
	t.cause = cause
	recordCompletion(stateCancelled, t.createdAt)
	t.onCancelled.Execute(func() *CancelledError { return cause })
	t.onCompletion.Execute(func() *Task[T] { return t })
	return t
}

// Waiting returns a task that never completes on its own. Useful to test
// cancellation propagation or to stand in for work a test never intends to
// finish.
func Waiting[T any]() *Task[T] {
	t := newTask[T]()
	t.st.Store(uint32(stateWaiting))
	return t
}

// StartBlocking returns a new running task bound to completer: signaling
// completer completes the returned task.
func StartBlocking[T any](completer *Completer[T]) *Task[T] {
	t := newTask[T]()
	t.st.Store(uint32(stateWaiting))
	completer.bindTo(
		t.succeed,
		t.fail,
		t.IsCancelled,
		t.CancellationCause,
	)
	return t
}

// Delay returns a task that succeeds with the zero value of T once timeout
// elapses, scheduled on GlobalTimer.
func Delay[T any](timeout time.Duration) *Task[T] {
	completer := NewCompleter[T]()
	t := StartBlocking(completer)
	var zero T
	_, _ = GlobalTimer().ScheduleOnce(func() {
		completer.TrySignalSuccess(zero)
	}, timeout)
	return t
}

// CancelAfter returns a task that cancels itself with payload once timeout
// elapses, unless it completes some other way first.
func CancelAfter[T any](payload any, timeout time.Duration) *Task[T] {
	t := Waiting[T]()
	_, _ = GlobalTimer().ScheduleOnce(func() {
		t.Cancel(payload)
	}, timeout)
	return t
}

// FailAfter returns a task that fails with err once timeout elapses.
func FailAfter[T any](err error, timeout time.Duration) *Task[T] {
	completer := NewCompleter[T]()
	t := StartBlocking(completer)
	_, _ = GlobalTimer().ScheduleOnce(func() {
		completer.TrySignalFailure(err)
	}, timeout)
	return t
}

// SucceedAfter returns a task that succeeds with v once timeout elapses.
func SucceedAfter[T any](v T, timeout time.Duration) *Task[T] {
	completer := NewCompleter[T]()
	t := StartBlocking(completer)
	_, _ = GlobalTimer().ScheduleOnce(func() {
		completer.TrySignalSuccess(v)
	}, timeout)
	return t
}

// Chain runs f against inner's result once inner succeeds, producing a new
// task of a possibly different type. Inner failing or being cancelled fails
// or cancels the returned task; cancellation also propagates the other way,
// so cancelling the returned task cancels inner.
func Chain[T, U any](inner *Task[T], f func(T) (U, error)) *Task[U] {
	return chain(inner, f, nil)
}

// ChainAsync is Chain with f dispatched through exec instead of run on the
// goroutine that observes inner's completion.
func ChainAsync[T, U any](inner *Task[T], f func(T) (U, error), exec Executor) *Task[U] {
	return chain(inner, f, exec)
}

func chain[T, U any](inner *Task[T], f func(T) (U, error), exec Executor) *Task[U] {
	completer := NewCompleter[U]()
	outer := StartBlocking(completer)

	run := func() {
		switch {
		case inner.IsSuccessful():
			v, _ := inner.GetFinishedResult()
			u, err := f(v)
			if err != nil {
				completer.TrySignalFailure(err)
				return
			}
			completer.TrySignalSuccess(u)
		case inner.IsFailed():
			completer.TrySignalFailure(inner.GetFailure())
		case inner.IsCancelled():
			cause, _ := inner.CancellationCause()
			outer.Cancel(cause.Payload)
		}
	}

	inner.OnCompletion(func(*Task[T]) {
		if exec != nil {
			exec.Submit(run)
		} else {
			run()
		}
	})

	outer.OnCancelled(func(cause *CancelledError) {
		inner.Cancel(cause.Payload)
	})

	return outer
}
