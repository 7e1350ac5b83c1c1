package service

import "time"

// Clock returns the current time. Tests swap in a fixed clock.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now()
}

// startOfDay returns local midnight of the day containing t.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
