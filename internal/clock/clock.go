package clock

import "time"

// Clock is the time source injected into services and stores.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now, in UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock stuck at t.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// NextHour returns the first full hour strictly after c.Now(). New events
// without a start are placed there.
func NextHour(c Clock) time.Time {
	return c.Now().Truncate(time.Hour).Add(time.Hour)
}

// NowMillis is c.Now() truncated to the millisecond precision rows are
// stored with.
func NowMillis(c Clock) time.Time {
	return c.Now().Truncate(time.Millisecond)
}
