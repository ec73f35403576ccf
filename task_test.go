package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTask_SuccessFactory(t *testing.T) {
	tk := Success(42)
	require.True(t, tk.IsSuccessful())
	require.Equal(t, StateSuccess, tk.GetState())
	v, ok := tk.GetFinishedResult()
	require.True(t, ok)
	require.Equal(t, 42, v)
	require.NoError(t, tk.CheckSuccess())
	require.Nil(t, tk.CheckFailure())
}

func TestTask_FailedFactory(t *testing.T) {
	cause := errors.New("boom")
	tk := Failed[int](cause)
	require.True(t, tk.IsFailed())

	// First CheckFailure observes the cause, second returns nil.
	require.ErrorIs(t, tk.CheckFailure(), cause)
	require.NoError(t, tk.CheckFailure())
	require.False(t, tk.HasUnconsumedException())

	// GetFailure never consumes.
	tk2 := Failed[int](cause)
	require.ErrorIs(t, tk2.GetFailure(), cause)
	require.ErrorIs(t, tk2.GetFailure(), cause)
}

func TestTask_CancelledFactory(t *testing.T) {
	tk := Cancelled[string]("reason")
	require.True(t, tk.IsCancelled())
	cause, ok := tk.CancellationCause()
	require.True(t, ok)
	require.Equal(t, "reason", cause.Payload)

	v, ok := tk.GetFinishedResult()
	require.False(t, ok)
	require.Equal(t, "", v)
}

func TestTask_GetFinishedResult_Boundaries(t *testing.T) {
	running := Waiting[int]()
	_, ok := running.GetFinishedResult()
	require.False(t, ok, "running task returns empty")

	cancelled := Cancelled[int]("x")
	_, ok = cancelled.GetFinishedResult()
	require.False(t, ok, "cancelled task returns empty")

	succeeded := Success(7)
	v, ok := succeeded.GetFinishedResult()
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestTask_Cancel_OnlyOnce(t *testing.T) {
	tk := Waiting[int]()
	require.True(t, tk.Cancel("first"))
	require.False(t, tk.Cancel("second"), "cancelling an already-cancelled task returns false")

	cause, ok := tk.CancellationCause()
	require.True(t, ok)
	require.Equal(t, "first", cause.Payload)
}

func TestTask_Cancel_DoesNotAlterCompletedTask(t *testing.T) {
	tk := Success(5)
	require.False(t, tk.Cancel("nope"))
	require.True(t, tk.IsSuccessful())
	v, _ := tk.GetFinishedResult()
	require.Equal(t, 5, v)
}

func TestTask_Await_ReturnsImmediatelyWhenDone(t *testing.T) {
	tk := Success(1)
	require.NoError(t, tk.Await(context.Background()))
}

func TestTask_Await_WakesOnCompletion(t *testing.T) {
	completer := NewCompleter[int]()
	tk := StartBlocking(completer)

	go func() {
		time.Sleep(20 * time.Millisecond)
		completer.TrySignalSuccess(9)
	}()

	require.NoError(t, tk.Await(context.Background()))
	v, ok := tk.GetFinishedResult()
	require.True(t, ok)
	require.Equal(t, 9, v)
}

func TestTask_Await_ContextCancellationYieldsInterrupted(t *testing.T) {
	tk := Waiting[int]()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := tk.Await(ctx)
	require.ErrorIs(t, err, ErrInterrupted)
}

func TestTask_AwaitTimeout_ThenSucceeds(t *testing.T) {
	tk := Delay[int](100 * time.Millisecond)

	err := tk.AwaitTimeout(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	err = tk.AwaitTimeout(context.Background(), 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, tk.IsSuccessful())
}

func TestTask_CheckFailureAndCheckSuccess_Consumption(t *testing.T) {
	cause := errors.New("boom")
	tk := Failed[int](cause)

	err := tk.CheckSuccess()
	var tfe *TaskFailureError
	require.ErrorAs(t, err, &tfe)
	require.ErrorIs(t, tfe.Cause, cause)

	require.NoError(t, tk.CheckFailure(), "second observation returns normally")
}

func TestTask_CheckSuccess_OnCancelled(t *testing.T) {
	tk := Cancelled[int]("stop")
	err := tk.CheckSuccess()
	var ce *CancelledError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "stop", ce.Payload)
}

func TestTask_OnSuccess_FiresForLateAndEarlySubscribers(t *testing.T) {
	completer := NewCompleter[int]()
	tk := StartBlocking(completer)

	var early, late int
	earlyDone := make(chan struct{})
	tk.OnSuccess(func(v int) {
		early = v
		close(earlyDone)
	})

	completer.TrySignalSuccess(3)
	<-earlyDone
	require.Equal(t, 3, early)

	lateDone := make(chan struct{})
	tk.OnSuccess(func(v int) {
		late = v
		close(lateDone)
	})
	<-lateDone
	require.Equal(t, 3, late)
}

func TestTask_OnCompletion_RunsAfterOutcomeSpecificHandler(t *testing.T) {
	tk := Waiting[int]()
	var order []string
	tk.OnSuccess(func(int) { order = append(order, "success") })
	tk.OnCancelled(func(*CancelledError) { order = append(order, "cancelled") })
	tk.OnCompletion(func(*Task[int]) { order = append(order, "completion") })
	tk.Cancel(nil)
	// cancel path: only onCancelled + onCompletion fire, in that order.
	require.Equal(t, []string{"cancelled", "completion"}, order)
}

func TestTask_GetFailureAs_TypedExtraction(t *testing.T) {
	wrapped := &TaskFailureError{Cause: errors.New("inner")}
	tk := Failed[int](wrapped)

	got, ok := GetFailureAs[int, *TaskFailureError](tk)
	require.True(t, ok)
	require.Equal(t, wrapped, got)

	// GetFailureAs does not consume.
	_, ok = GetFailureAs[int, *TaskFailureError](tk)
	require.True(t, ok)

	// CheckFailureAs consumes once.
	extracted, ok := CheckFailureAs[int, *TaskFailureError](tk)
	require.True(t, ok)
	require.Equal(t, wrapped, extracted)
	require.False(t, tk.HasUnconsumedException())
}

func TestTask_CancellationRacesCompletion(t *testing.T) {
	// Scenario 3: concurrent SignalSuccess and Cancel; exactly one wins.
	for i := 0; i < 50; i++ {
		completer := NewCompleter[int]()
		tk := StartBlocking(completer)

		done := make(chan struct{})
		go func() {
			completer.TrySignalSuccess(1)
			close(done)
		}()
		tk.Cancel("stop")
		<-done

		switch tk.GetState() {
		case StateSuccess:
			v, ok := tk.GetFinishedResult()
			require.True(t, ok)
			require.Equal(t, 1, v)
		case StateCancelled:
			cause, ok := tk.CancellationCause()
			require.True(t, ok)
			require.Equal(t, "stop", cause.Payload)
		default:
			t.Fatalf("unexpected terminal state %v", tk.GetState())
		}
	}
}
