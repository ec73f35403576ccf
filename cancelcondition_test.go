package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCancelCondition_Cancel_UnboundIsNoOp(t *testing.T) {
	c := NewCancelCondition()
	require.False(t, c.Cancel("p"))
	require.False(t, c.IsCancelled())

	_, ok := c.CancellationCause()
	require.False(t, ok)
}

func TestCancelCondition_Cancel_SucceedsAtMostOnce(t *testing.T) {
	c := NewCancelCondition()
	c.SetupAction(func(any) bool { return true })
	require.True(t, c.Cancel("first"))
	require.False(t, c.Cancel("second"))

	cause, _ := c.CancellationCause()
	require.Equal(t, "first", cause.Payload)
}

func TestCancelCondition_SetupAction_SucceedsAtMostOnce(t *testing.T) {
	c := NewCancelCondition()
	require.True(t, c.SetupAction(func(any) bool { return true }))
	require.False(t, c.SetupAction(func(any) bool { return true }))
}

func TestCancelCondition_Cancel_RejectedByBoundAction(t *testing.T) {
	c := NewCancelCondition()
	c.SetupAction(func(any) bool { return false })

	require.False(t, c.Cancel("x"))
	require.False(t, c.IsCancelled())

	// A rejected Cancel leaves the condition open for a later accepting call.
	c2 := NewCancelCondition()
	calls := 0
	c2.SetupAction(func(any) bool {
		calls++
		return calls > 1
	})
	require.False(t, c2.Cancel("first"))
	require.True(t, c2.Cancel("second"))
}

func TestCancelCondition_OnCancelled_LateAndEarlySubscribers(t *testing.T) {
	c := NewCancelCondition()
	c.SetupAction(func(any) bool { return true })
	var early, late any

	c.OnCancelled(func(ce *CancelledError) { early = ce.Payload })
	c.Cancel("v")
	require.Equal(t, "v", early)

	c.OnCancelled(func(ce *CancelledError) { late = ce.Payload })
	require.Equal(t, "v", late)
}

func TestCancelCondition_ConcurrentCancel_ExactlyOneWinner(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := NewCancelCondition()
		c.SetupAction(func(any) bool { return true })
		results := make(chan bool, 10)
		for g := 0; g < 10; g++ {
			go func(payload int) {
				results <- c.Cancel(payload)
			}(g)
		}

		wins := 0
		for g := 0; g < 10; g++ {
			if <-results {
				wins++
			}
		}
		require.Equal(t, 1, wins)
	}
}

func TestCancelCondition_WithAwaitCondition_ScenarioAwaitWithCancelCondition(t *testing.T) {
	completer := NewCompleter[int]()
	tk := StartBlocking(completer)
	c := NewCancelCondition()

	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Cancel(nil)
	}()

	start := time.Now()
	err := tk.AwaitCondition(context.Background(), c)
	elapsed := time.Since(start)

	var ce *CancelledError
	require.ErrorAs(t, err, &ce)
	require.GreaterOrEqual(t, elapsed, 15*time.Millisecond)
	require.Equal(t, StateRunning, tk.GetState())
	require.False(t, tk.IsCancelled())
	require.True(t, c.IsCancelled())
}
