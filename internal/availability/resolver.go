package availability

import (
	"log"
	"time"

	"github.com/skataria/bookingagent/internal/gcal"
	"github.com/skataria/bookingagent/internal/timeutil"
)

// MaxSlots bounds how many open slots a search returns. It keeps the
// conversational list short; callers must not assume the result is the
// complete set of openings.
const MaxSlots = 10

// EventLister is the read side of the external calendar.
type EventLister interface {
	ListEventsInRange(timeMin, timeMax time.Time) ([]gcal.EventDetails, error)
}

// Resolver answers availability questions against the external calendar.
// The calendar is the single source of truth; nothing is cached.
type Resolver struct {
	calendar EventLister
	loc      *time.Location
	now      func() time.Time
}

func New(calendar EventLister, loc *time.Location) *Resolver {
	return &Resolver{
		calendar: calendar,
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock overrides the resolver's time source. Tests use it to pin "now".
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// IsFree reports whether [start, start+duration) overlaps no existing event.
// Intervals are half-open, so back-to-back bookings do not conflict. A failed
// calendar query degrades to "not free" rather than propagating the error.
func (r *Resolver) IsFree(start time.Time, duration time.Duration) bool {
	start = start.In(r.loc)
	end := start.Add(duration)

	events, err := r.calendar.ListEventsInRange(start, end)
	if err != nil {
		// Fail closed: an unknown calendar state must never be offered as free.
		log.Printf("availability query failed, treating slot as busy: %v", err)
		return false
	}

	for _, event := range events {
		// All-day events carry midnight bounds, so the same half-open
		// comparison blocks the whole date.
		if start.Before(event.EndTime) && end.After(event.StartTime) {
			return false
		}
	}

	return true
}

// FindAvailableSlots enumerates open slots on weekdays between startDate and
// endDate inclusive: every business hour on the hour plus the half-hour slot,
// keeping only slots strictly in the future that pass IsFree. At most
// MaxSlots are returned, in chronological order.
func (r *Resolver) FindAvailableSlots(startDate, endDate time.Time, duration time.Duration) []time.Time {
	var slots []time.Time
	now := r.now().In(r.loc)

	day := timeutil.At(startDate.In(r.loc), 0, 0, r.loc)
	last := timeutil.At(endDate.In(r.loc), 0, 0, r.loc)

	for !day.After(last) && len(slots) < MaxSlots {
		if !timeutil.IsWeekday(day) {
			day = day.AddDate(0, 0, 1)
			continue
		}

		for hour := timeutil.BusinessStartHour; hour < timeutil.BusinessEndHour && len(slots) < MaxSlots; hour++ {
			onHour := timeutil.At(day, hour, 0, r.loc)
			if onHour.After(now) && r.IsFree(onHour, duration) {
				slots = append(slots, onHour)
			}
			if len(slots) >= MaxSlots {
				break
			}

			halfHour := timeutil.At(day, hour, 30, r.loc)
			// The half-hour slot is dropped when it would start past closing.
			if halfHour.Hour() >= timeutil.BusinessEndHour {
				continue
			}
			if halfHour.After(now) && r.IsFree(halfHour, duration) {
				slots = append(slots, halfHour)
			}
		}

		day = day.AddDate(0, 0, 1)
	}

	return slots
}
