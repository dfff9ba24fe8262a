package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// The Analyzer stamps each Result with it, and the iCalendar exports
// reuse that stamp for DTSTAMP.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
