package domain

import "time"

// Dates in this package are time.Time values normalized to midnight UTC.
// All day arithmetic assumes that normalization; NewDate and DateOf are the
// only constructors the rest of the codebase should use.

// NewDate returns the given calendar day as midnight UTC.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf strips the time-of-day and timezone from t, keeping the calendar
// day as observed in t's own location. A photo taken at 23:50 local time
// belongs to that local day regardless of what UTC thinks.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in the given location as a
// normalized date. Pass time.Local for device-local "today".
func Today(loc *time.Location) time.Time {
	return DateOf(time.Now().In(loc))
}

// DaysBetween returns the signed number of calendar days from a to b.
// Both arguments must be normalized dates. DaysBetween(d, d) == 0.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// MaxDate returns the later of a and b.
func MaxDate(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// MinDate returns the earlier of a and b.
func MinDate(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
