// Package system provides the wall clock.
package system

import "time"

// Clock reports the current time in a fixed location.
type Clock struct {
	loc *time.Location
}

// New creates a Clock reporting times in loc, or UTC when loc is nil.
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

// Now returns the current time.
func (c Clock) Now() time.Time {
	return time.Now().In(c.loc)
}
