// Package clock abstracts wall time so restart deadlines and connection
// timestamps can be driven from tests.
package clock

import "time"

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock
type SystemClock struct{}

// New returns the host clock
func New() SystemClock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now()
}
