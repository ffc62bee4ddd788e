package model

import "time"

// Clock returns the current time. Indicators and toggles take one so tests
// can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
