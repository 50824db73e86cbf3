package timeutil

import (
	"time"
)

// Business hours within which slots are ever offered, weekdays only.
const (
	BusinessStartHour = 9
	BusinessEndHour   = 18
)

var defaultLocation = time.UTC

// ResolveLocation returns the configured business location. The bool is
// false when the name didn't resolve and UTC was substituted.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone == "" {
		return defaultLocation, true
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return defaultLocation, false
	}
	return loc, true
}

// At returns the instant on day's calendar date at the given wall clock in loc.
func At(day time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WithinBusinessHours reports whether t's wall clock falls inside the
// business window on a weekday. The end bound is exclusive.
func WithinBusinessHours(t time.Time) bool {
	if !IsWeekday(t) {
		return false
	}
	return t.Hour() >= BusinessStartHour && t.Hour() < BusinessEndHour
}

// SameMinute compares two instants at minute granularity in the same zone.
// Independently computed instants can drift below the minute, so slot
// equality is never checked with Equal.
func SameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.In(a.Location()).Truncate(time.Minute))
}

// SameDate reports whether two instants fall on the same calendar date in a's zone.
func SameDate(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
