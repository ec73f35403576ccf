package task

import "sync"

// shutdownCoordinator encapsulates ScheduledExecutor's teardown sequence. It
// doesn't own any channel itself; it just orchestrates stopping intake,
// closing the work queue, and waiting out detached senders in a fixed order.
//
// run is safe for concurrent calls; the sequence executes exactly once.
type shutdownCoordinator struct {
	stopAccepting func()
	closeWork     func()
	waitSenders   func()

	once sync.Once
}

func newShutdownCoordinator(stopAccepting, closeWork, waitSenders func()) *shutdownCoordinator {
	return &shutdownCoordinator{
		stopAccepting: stopAccepting,
		closeWork:     closeWork,
		waitSenders:   waitSenders,
	}
}

// run executes the shutdown sequence exactly once:
//  1. stop accepting new schedules
//  2. close the work queue so the worker goroutine drains and exits
//  3. wait for any detached error-forwarder sender to finish
func (c *shutdownCoordinator) run() {
	c.once.Do(func() {
		if c.stopAccepting != nil {
			c.stopAccepting()
		}
		if c.closeWork != nil {
			c.closeWork()
		}
		if c.waitSenders != nil {
			c.waitSenders()
		}
	})
}
