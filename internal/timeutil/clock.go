package timeutil

import (
	"sync"
	"time"
)

// Location is the business time zone used for calendar dates. It defaults
// to UTC and is set once at startup from config.
var Location = time.UTC

// SetLocation loads the named zone, falling back to UTC when the zone
// database is missing on the host.
func SetLocation(name string) {
	if name == "" {
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return
	}
	Location = loc
}

// Clock supplies the current time. The sweep and expansion code never call
// time.Now directly so tests can pin the date.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the business location
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().In(Location)
}

// FixedClock is a settable clock for tests and replays
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
