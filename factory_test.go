package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChain_ScenarioChainPropagation(t *testing.T) {
	inner := SucceedAfter(10, 5*time.Millisecond)
	outer := Chain(inner, func(x int) (int, error) { return x * 2, nil })

	require.NoError(t, outer.Await(context.Background()))
	v, ok := outer.GetFinishedResult()
	require.True(t, ok)
	require.Equal(t, 20, v)
}

func TestChain_CancellingOuterCancelsInner(t *testing.T) {
	inner := Waiting[int]()
	outer := Chain(inner, func(x int) (int, error) { return x, nil })

	require.True(t, outer.Cancel("x"))

	require.NoError(t, inner.AwaitTimeout(context.Background(), time.Second))
	require.True(t, inner.IsCancelled())
	cause, ok := inner.CancellationCause()
	require.True(t, ok)
	require.Equal(t, "x", cause.Payload)
}

func TestChain_PropagatesFailure(t *testing.T) {
	cause := errors.New("boom")
	inner := Failed[int](cause)
	outer := Chain(inner, func(x int) (int, error) { return x, nil })

	require.NoError(t, outer.Await(context.Background()))
	require.True(t, outer.IsFailed())
	require.ErrorIs(t, outer.GetFailure(), cause)
}

func TestChain_PropagatesCancellation(t *testing.T) {
	inner := Cancelled[int]("stop")
	outer := Chain(inner, func(x int) (int, error) { return x, nil })

	require.NoError(t, outer.Await(context.Background()))
	require.True(t, outer.IsCancelled())
	cause, ok := outer.CancellationCause()
	require.True(t, ok)
	require.Equal(t, "stop", cause.Payload)
}

func TestChain_FWithError_FailsOuter(t *testing.T) {
	inner := Success(1)
	fErr := errors.New("f failed")
	outer := Chain(inner, func(int) (int, error) { return 0, fErr })

	require.NoError(t, outer.Await(context.Background()))
	require.True(t, outer.IsFailed())
	require.ErrorIs(t, outer.GetFailure(), fErr)
}

func TestChainAsync_RunsOnExecutor(t *testing.T) {
	inner := Success(4)
	exec := NewDefaultExecutor()
	outer := ChainAsync(inner, func(x int) (int, error) { return x + 1, nil }, exec)

	require.NoError(t, outer.Await(context.Background()))
	v, ok := outer.GetFinishedResult()
	require.True(t, ok)
	require.Equal(t, 5, v)
}

func TestCancelAfter_FiresUnlessCompletedFirst(t *testing.T) {
	tk := CancelAfter[int]("timeout", 20*time.Millisecond)
	require.NoError(t, tk.AwaitTimeout(context.Background(), time.Second))
	require.True(t, tk.IsCancelled())
	cause, _ := tk.CancellationCause()
	require.Equal(t, "timeout", cause.Payload)
}

func TestFailAfter_FailsOnceElapsed(t *testing.T) {
	cause := errors.New("late")
	tk := FailAfter[int](cause, 20*time.Millisecond)
	require.NoError(t, tk.AwaitTimeout(context.Background(), time.Second))
	require.ErrorIs(t, tk.GetFailure(), cause)
}

func TestSucceedAfter_SucceedsOnceElapsed(t *testing.T) {
	tk := SucceedAfter(99, 20*time.Millisecond)
	require.NoError(t, tk.AwaitTimeout(context.Background(), time.Second))
	v, ok := tk.GetFinishedResult()
	require.True(t, ok)
	require.Equal(t, 99, v)
}

func TestWaiting_NeverCompletesOnItsOwn(t *testing.T) {
	tk := Waiting[int]()
	err := tk.AwaitTimeout(context.Background(), 30*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.True(t, tk.IsRunning())
}

func TestStartBlocking_BindsCompleterExactlyOnce(t *testing.T) {
	completer := NewCompleter[int]()
	_ = StartBlocking(completer)
	_ = StartBlocking(completer) // second bind must lose silently, not corrupt the first

	won, err := completer.SignalSuccess(1)
	require.NoError(t, err)
	require.True(t, won)
}
