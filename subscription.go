package task

import "sync/atomic"

// shState is SubscriptionHandler's 4-state CAS machine. COLLECTING is the
// only state a new Subscribe can append into; Execute owns RUNNING while it
// latches the context and drains the queue exactly once.
type shState uint32

const (
	shCollecting shState = iota
	shAdding
	shRunning
	shExpired
)

// SubscriptionHandler delivers a single event of type C to every subscriber,
// regardless of whether Subscribe was called before or after the event
// happened: a late subscriber still gets called, synchronously, with the
// latched context.
type SubscriptionHandler[C any] struct {
	st      atomic.Uint32
	queue   []func(C)
	context C
}

// NewSubscriptionHandler returns a handler in the COLLECTING state.
func NewSubscriptionHandler[C any]() *SubscriptionHandler[C] {
	return &SubscriptionHandler[C]{}
}

// Subscribe registers action to run with the eventual event. If the event
// already fired, action runs synchronously on the calling goroutine before
// Subscribe returns.
func (h *SubscriptionHandler[C]) Subscribe(action func(C)) {
	for {
		switch shState(h.st.Load()) {
		case shExpired:
			action(h.context)
			return
		case shAdding, shRunning:
			// ADDING ends after a single append; RUNNING ends once Execute
			// has run every queued callback. Spin until either resolves.
			continue
		case shCollecting:
			if h.st.CompareAndSwap(uint32(shCollecting), uint32(shAdding)) {
				h.queue = append(h.queue, action)
				if !h.st.CompareAndSwap(uint32(shAdding), uint32(shCollecting)) {
					panicInvariant("subscription: adding -> collecting CAS failed")
				}
				return
			}
		}
	}
}

// Execute fires the event exactly once, latching the value contextSupplier
// returns and delivering it to every queued and future subscriber. It
// returns false if the handler had already expired or is being executed by
// another goroutine.
func (h *SubscriptionHandler[C]) Execute(contextSupplier func() C) bool {
	for {
		switch shState(h.st.Load()) {
		case shExpired, shRunning:
			return false
		case shAdding:
			continue
		case shCollecting:
			if h.st.CompareAndSwap(uint32(shCollecting), uint32(shRunning)) {
				h.context = contextSupplier()
				h.drain()
				if !h.st.CompareAndSwap(uint32(shRunning), uint32(shExpired)) {
					panicInvariant("subscription: running -> expired CAS failed")
				}
				return true
			}
		}
	}
}

// drain invokes every queued callback, isolating each from the others: a
// subscriber must never be able to prevent its siblings from running by
// panicking.
func (h *SubscriptionHandler[C]) drain() {
	for _, fn := range h.queue {
		callIsolated(fn, h.context)
	}
	h.queue = nil
}

func callIsolated[C any](fn func(C), v C) {
	defer func() { _ = recover() }()
	fn(v)
}
