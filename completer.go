package task

import (
	"errors"
	"sync/atomic"
)

// setupState is Completer's 3-state setup machine: a Completer is useless
// until StartBlocking binds it to a Task, and a second bind attempt must
// lose cleanly rather than corrupt the first task's wiring.
type setupState uint32

const (
	setupUnset setupState = iota
	setupSetting
	setupSet
)

// Completer is the producer-side handle for a Task: the only way to signal
// success or failure into a blocking task created via StartBlocking.
// Cancellation is not signaled through a Completer — it is always driven
// directly through the paired Task's own Cancel family.
type Completer[T any] struct {
	setup atomic.Uint32

	signalSuccessFn func(T) bool
	signalFailureFn func(error) bool
	isCancelledFn   func() bool
	causeFn         func() (*CancelledError, bool)
}

// NewCompleter returns an unbound Completer. Pass it to StartBlocking to
// pair it with a running Task.
func NewCompleter[T any]() *Completer[T] {
	return &Completer[T]{}
}

// bindTo pairs the completer with a task's private mutators. It is called
// exactly once, by StartBlocking, and fails (returns false) if this
// completer was already bound.
func (c *Completer[T]) bindTo(
	signalSuccess func(T) bool,
	signalFailure func(error) bool,
	isCancelled func() bool,
	cause func() (*CancelledError, bool),
) bool {
	if !c.setup.CompareAndSwap(uint32(setupUnset), uint32(setupSetting)) {
		return false
	}
	c.signalSuccessFn = signalSuccess
	c.signalFailureFn = signalFailure
	c.isCancelledFn = isCancelled
	c.causeFn = cause
	if !c.setup.CompareAndSwap(uint32(setupSetting), uint32(setupSet)) {
		panicInvariant("completer: setting -> set CAS failed")
	}
	return true
}

func (c *Completer[T]) waitBound() {
	for setupState(c.setup.Load()) != setupSet {
		// SETTING is a momentary window between two CAS writes in bindTo.
	}
}

// SignalSuccess completes the paired task successfully with v. It returns
// true iff this call won the race to complete the task. If the task had
// already been cancelled by a third party, it returns false along with the
// cancellation cause.
func (c *Completer[T]) SignalSuccess(v T) (bool, error) {
	if setupState(c.setup.Load()) == setupUnset {
		return false, ErrIllegalState
	}
	c.waitBound()
	won := c.signalSuccessFn(v)
	if !won && c.isCancelledFn() {
		if cause, ok := c.causeFn(); ok {
			return false, cause
		}
	}
	return won, nil
}

// SignalFailure completes the paired task with err as its failure. Same
// race semantics as SignalSuccess.
func (c *Completer[T]) SignalFailure(err error) (bool, error) {
	if setupState(c.setup.Load()) == setupUnset {
		return false, ErrIllegalState
	}
	c.waitBound()
	won := c.signalFailureFn(err)
	if !won && c.isCancelledFn() {
		if cause, ok := c.causeFn(); ok {
			return false, cause
		}
	}
	return won, nil
}

// TrySignalSuccess is SignalSuccess without an error return: it swallows a
// concurrent cancellation (the common, expected race) but panics if the
// completer was never bound, since that is a programming error rather than
// a race any caller should need to handle.
func (c *Completer[T]) TrySignalSuccess(v T) bool {
	won, err := c.SignalSuccess(v)
	if err != nil && !errors.Is(err, ErrCancelled) {
		panic(err)
	}
	return won
}

// TrySignalFailure is the failure-path counterpart of TrySignalSuccess.
func (c *Completer[T]) TrySignalFailure(err error) bool {
	won, sigErr := c.SignalFailure(err)
	if sigErr != nil && !errors.Is(sigErr, ErrCancelled) {
		panic(sigErr)
	}
	return won
}

// IsCancelled reports whether the paired task has been cancelled by a third
// party. It is false for an unbound completer.
func (c *Completer[T]) IsCancelled() bool {
	if setupState(c.setup.Load()) != setupSet {
		return false
	}
	return c.isCancelledFn()
}

// CancellationCause returns the paired task's cancellation cause, if any.
func (c *Completer[T]) CancellationCause() (*CancelledError, bool) {
	if setupState(c.setup.Load()) != setupSet {
		return nil, false
	}
	return c.causeFn()
}
