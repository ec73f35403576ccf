package task

import "sync/atomic"

// ccState is CancelCondition's 4-state CAS machine. TESTING is the window
// during which the bound action runs; only one Cancel call is ever let
// through it.
type ccState uint32

const (
	ccIdle ccState = iota
	ccTesting
	ccRunning
	ccExecuted
)

const ccExpiredMask = ccRunning

// CancelCondition is an externally-triggerable, one-shot predicate. Cancel
// calls run the bound action one at a time; a call whose action rejects
// leaves the condition idle for a later call, and once one call's action has
// accepted, every later call returns false without running the action.
type CancelCondition struct {
	action AssignOnce[func(payload any) bool]
	cause  AssignOnce[*CancelledError]
	subs   *SubscriptionHandler[*CancelledError]
	st     atomic.Uint32
}

// NewCancelCondition returns a CancelCondition with no bound action yet.
func NewCancelCondition() *CancelCondition {
	return &CancelCondition{subs: NewSubscriptionHandler[*CancelledError]()}
}

// SetupAction binds action as the predicate a future Cancel call runs. It
// returns false if an action was already bound by a previous caller.
func (c *CancelCondition) SetupAction(action func(payload any) bool) bool {
	return c.action.Set(action)
}

// Cancel attempts to fire the condition with payload. It returns true iff
// this call made the condition transition to cancelled by running the bound
// action and having it accept. Without an action bound via SetupAction,
// Cancel is a no-op that returns false.
func (c *CancelCondition) Cancel(payload any) bool {
	for {
		s := ccState(c.st.Load())
		if s&ccExpiredMask != 0 {
			// Already fired by a previous, accepted call.
			return false
		}
		switch s {
		case ccTesting:
			continue
		case ccIdle:
			if !c.st.CompareAndSwap(uint32(ccIdle), uint32(ccTesting)) {
				continue
			}
			action, ok := c.action.Get()
			accept := ok && action(payload)
			if !accept {
				if !c.st.CompareAndSwap(uint32(ccTesting), uint32(ccIdle)) {
					panicInvariant("cancelcondition: testing -> idle CAS failed")
				}
				return false
			}
			if !c.st.CompareAndSwap(uint32(ccTesting), uint32(ccRunning)) {
				panicInvariant("cancelcondition: testing -> running CAS failed")
			}
			cause := &CancelledError{Payload: payload}
			c.cause.Set(cause)
			c.subs.Execute(func() *CancelledError { return cause })
			if !c.st.CompareAndSwap(uint32(ccRunning), uint32(ccExecuted)) {
				panicInvariant("cancelcondition: running -> executed CAS failed")
			}
			return true
		}
	}
}

// IsCancelled reports whether the condition has fired.
func (c *CancelCondition) IsCancelled() bool {
	return ccState(c.st.Load()) == ccExecuted
}

// CancellationCause returns the payload-bearing error the firing Cancel
// call published, if the condition has fired.
func (c *CancelCondition) CancellationCause() (*CancelledError, bool) {
	return c.cause.Get()
}

// OnCancelled subscribes fn to run with the cancellation cause once the
// condition fires, synchronously on the calling goroutine if it already has.
func (c *CancelCondition) OnCancelled(fn func(*CancelledError)) {
	c.subs.Subscribe(fn)
}

// OnCancelledAsync is OnCancelled dispatched through exec instead of run
// inline.
func (c *CancelCondition) OnCancelledAsync(fn func(*CancelledError), exec Executor) {
	c.subs.Subscribe(func(ce *CancelledError) { exec.Submit(func() { fn(ce) }) })
}
