package task

import (
	"context"
	"sync"
	"time"
)

// masterPermitKey is the sentinel key every Task completion signals on.
// Waiters registered under any other key are woken by it too — a
// completion always subsumes a condition — while a key-specific signal
// (a CancelCondition firing) only wakes waiters registered under that key.
var masterPermitKey = new(struct{})

// Awaiter is a keyed park/unpark gate. Each waiter parks under a key (a
// comparable value: masterPermitKey or a *CancelCondition) and is handed a
// private channel; SignalAll wakes every waiter under a key, or — for
// masterPermitKey — every waiter registered under any key at all.
type Awaiter struct {
	mu       sync.Mutex
	waiters  map[any][]chan struct{}
	fired    map[any]bool
	firedAll bool
}

// NewAwaiter returns an empty Awaiter.
func NewAwaiter() *Awaiter {
	return &Awaiter{waiters: make(map[any][]chan struct{}), fired: make(map[any]bool)}
}

// register parks under key, or, if key has already fired (a SignalAll for
// it, or for masterPermitKey, happened before this call could take the
// lock), hands back an already-closed channel. Checking fired state and
// appending to waiters under the same lock SignalAll uses closes the
// check-then-register race: whichever of register/SignalAll takes the lock
// first is always the one the other observes.
func (a *Awaiter) register(key any) chan struct{} {
	a.mu.Lock()
	if a.firedAll || a.fired[key] {
		a.mu.Unlock()
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	ch := make(chan struct{})
	a.waiters[key] = append(a.waiters[key], ch)
	a.mu.Unlock()
	return ch
}

func (a *Awaiter) deregister(key any, ch chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.waiters[key]
	for i, c := range list {
		if c == ch {
			a.waiters[key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(a.waiters[key]) == 0 {
		delete(a.waiters, key)
	}
}

// SignalAll wakes every waiter currently parked under key. If key is
// masterPermitKey, every waiter under every key is woken — a task
// completion is always a global event.
func (a *Awaiter) SignalAll(key any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if key == any(masterPermitKey) {
		a.firedAll = true
		for k, list := range a.waiters {
			for _, ch := range list {
				close(ch)
			}
			delete(a.waiters, k)
		}
		return
	}
	a.fired[key] = true
	for _, ch := range a.waiters[key] {
		close(ch)
	}
	delete(a.waiters, key)
}

// Await parks under key until signaled or ctx is done, returning
// ErrInterrupted in the latter case.
func (a *Awaiter) Await(ctx context.Context, key any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrInterrupted
	}
	ch := a.register(key)
	select {
	case <-ch:
		return key, nil
	case <-ctx.Done():
		a.deregister(key, ch)
		return nil, ErrInterrupted
	}
}

// AwaitUninterruptibly parks under key until signaled. It has no
// cancellation path: Go offers no thread-interrupt primitive, and this is
// the uninterruptible half of the source API's wait contract.
func (a *Awaiter) AwaitUninterruptibly(key any) any {
	ch := a.register(key)
	<-ch
	return key
}

// AwaitTimeout parks under key until signaled, ctx is done, or timeout
// elapses (ErrTimeout).
func (a *Awaiter) AwaitTimeout(ctx context.Context, key any, timeout time.Duration) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrInterrupted
	}
	ch := a.register(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return key, nil
	case <-ctx.Done():
		a.deregister(key, ch)
		return nil, ErrInterrupted
	case <-timer.C:
		a.deregister(key, ch)
		return nil, ErrTimeout
	}
}

// AwaitUninterruptiblyTimeout parks under key until signaled or timeout
// elapses (ErrTimeout).
func (a *Awaiter) AwaitUninterruptiblyTimeout(key any, timeout time.Duration) (any, error) {
	ch := a.register(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return key, nil
	case <-timer.C:
		a.deregister(key, ch)
		return nil, ErrTimeout
	}
}
