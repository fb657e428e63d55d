package model

import "time"

// Schedule is a point-in-time copy of the restart schedule
// A zero Interval means no restart is scheduled
type Schedule struct {
	Interval     time.Duration
	NextDeadline time.Time
}

// Active reports whether a restart is scheduled
func (s Schedule) Active() bool {
	return s.Interval > 0 && !s.NextDeadline.IsZero()
}
