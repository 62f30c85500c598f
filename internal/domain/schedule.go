package domain

import "time"

// NextDaily returns the first moment strictly after now at which the local
// wall clock in loc reads c. DST gaps are resolved the way time.Date does.
func NextDaily(now time.Time, c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
	if !at.After(local) {
		at = time.Date(local.Year(), local.Month(), local.Day()+1, c.Hour, c.Minute, 0, 0, loc)
	}
	return at
}
