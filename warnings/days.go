package warnings

import "time"

const day = 24 * time.Hour

// civil drops the clock and zone, keeping the calendar date t shows in its own location.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from from to to. It is negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	return int(civil(to).Sub(civil(from)) / day)
}
