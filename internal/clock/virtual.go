package clock

import (
	"sync"
	"time"
)

// Virtual is a manually driven clock. Waiters registered with After fire
// when Advance or Set moves time past their deadline, which lets replay
// timing be tested without sleeping.
type Virtual struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
	changed chan struct{}
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start, changed: make(chan struct{})}
}

func (c *Virtual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Virtual) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(t)
}

func (c *Virtual) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, waiter{deadline: c.now.Add(d), ch: ch})
	c.notify()
	return ch
}

// Advance moves time forward and fires due waiters. Panics if d is negative.
func (c *Virtual) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.fire()
}

// Set jumps to t and fires due waiters. Panics if t is in the past.
func (c *Virtual) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Before(c.now) {
		panic("clock: cannot set time to the past")
	}
	c.now = t
	c.fire()
}

// Pending returns the number of unfired waiters.
func (c *Virtual) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// BlockUntil waits until at least n waiters are pending or timeout passes in
// real time. It reports whether the condition was reached.
func (c *Virtual) BlockUntil(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		c.mu.Lock()
		if len(c.waiters) >= n {
			c.mu.Unlock()
			return true
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-deadline:
			return false
		}
	}
}

// must hold c.mu
func (c *Virtual) fire() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if w.deadline.After(c.now) {
			remaining = append(remaining, w)
			continue
		}
		w.ch <- c.now
	}
	c.waiters = remaining
	c.notify()
}

// must hold c.mu
func (c *Virtual) notify() {
	close(c.changed)
	c.changed = make(chan struct{})
}
