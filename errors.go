package task

import (
	"errors"
	"fmt"
)

// Namespace prefixes every sentinel error message in this package.
const Namespace = "task"

var (
	// ErrCancelled is the sentinel every CancelledError unwraps to.
	ErrCancelled = errors.New(Namespace + ": task cancelled")

	// ErrTaskFailure is the sentinel every TaskFailureError unwraps to.
	ErrTaskFailure = errors.New(Namespace + ": task failed")

	// ErrInvalidArgument reports a caller-supplied argument that cannot be
	// accepted. Configure raises it (wrapped in a panic) for a nil metrics
	// Provider.
	ErrInvalidArgument = errors.New(Namespace + ": invalid argument")

	// ErrIllegalState reports an operation attempted from a state that
	// forbids it (e.g. signaling an unbound Completer).
	ErrIllegalState = errors.New(Namespace + ": illegal state")

	// ErrOutParameterBound is returned when a CancelCondition out-parameter
	// has already been bound by a previous caller.
	ErrOutParameterBound = errors.New(Namespace + ": out parameter already bound")

	// ErrTimeout is returned by the timed Await family when the deadline
	// elapses before the task reaches a terminal state.
	ErrTimeout = errors.New(Namespace + ": await timed out")

	// ErrInterrupted surfaces a context cancelled before or during an
	// interruptible Await; it stands in for Go's absent thread-interrupt.
	ErrInterrupted = errors.New(Namespace + ": await interrupted")

	// ErrExecutorRejected is returned by GlobalTimer scheduling calls made
	// after shutdown has begun.
	ErrExecutorRejected = errors.New(Namespace + ": executor no longer accepting work")
)

// StructuralInvariantError reports a broken internal invariant: a state
// transition this package believes to be impossible actually happened.
// Callers never receive this as a returned error; it is raised via panic so
// a corrupted Task never silently produces a wrong answer.
type StructuralInvariantError struct {
	Detail string
}

func (e *StructuralInvariantError) Error() string {
	return fmt.Sprintf("%s: structural invariant broken: %s", Namespace, e.Detail)
}

func panicInvariant(detail string) {
	panic(&StructuralInvariantError{Detail: detail})
}

// CancelledError carries the payload an external caller attached to a
// Cancel call. It unwraps to ErrCancelled so callers can use errors.Is.
type CancelledError struct {
	Payload any
}

func (e *CancelledError) Error() string {
	if e.Payload == nil {
		return ErrCancelled.Error()
	}
	return fmt.Sprintf("%s: %v", ErrCancelled.Error(), e.Payload)
}

func (e *CancelledError) Unwrap() error { return ErrCancelled }

// AsCancelledError extracts a *CancelledError from err.
func AsCancelledError(err error) (*CancelledError, bool) {
	var ce *CancelledError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// TaskFailureError wraps the cause stored by a FAILED task. It is raised by
// Task.CheckSuccess; Task.CheckFailure and Task.GetFailure return the bare
// cause instead, matching their documented contracts.
type TaskFailureError struct {
	Cause error
}

func (e *TaskFailureError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTaskFailure.Error(), e.Cause)
}

func (e *TaskFailureError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrTaskFailure, in addition to the normal
// Unwrap-based chain to Cause.
func (e *TaskFailureError) Is(target error) bool {
	return target == ErrTaskFailure
}
