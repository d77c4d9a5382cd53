// Package testutil provides shared test doubles and fixtures for service,
// sweeper and handler tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a manually advanced clock. Its Now method satisfies the
// func() time.Time hooks taken by the calendar, services and sweeper.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
