package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/skataria/bookingagent/internal/gcal"
	"github.com/skataria/bookingagent/internal/notify"
	"github.com/skataria/bookingagent/internal/timeparse"
)

// Booking failures the state machine branches on.
var (
	ErrInvalidSlot = errors.New("invalid slot instant")
	// ErrSlotTaken means the slot passed the free-check earlier in the
	// dialogue but was taken by the time of commit. The re-check is a
	// best-effort race mitigation, not a transaction; the external
	// calendar stays the single source of truth.
	ErrSlotTaken = errors.New("slot no longer available")
)

// CalendarWriter is the write side of the external calendar.
type CalendarWriter interface {
	CreateEvent(input gcal.EventInput) (string, error)
	GetTimezone() (string, error)
	UpdateTimezone(timezone string) (string, error)
}

const eventTitle = "Meeting via AI Booking Agent"

// bookAppointment validates the selected slot is still free and creates the
// calendar event. The original utterance is re-parsed to recover the
// intended duration. Returns the user-facing confirmation text.
func (a *Agent) bookAppointment(ctx context.Context, session *Session, utterance string, slot time.Time) (string, error) {
	if slot.IsZero() {
		return "", ErrInvalidSlot
	}
	slot = slot.In(a.loc)

	duration := timeparse.DefaultDuration
	if spec := a.parser.ParseWithDuration(utterance, a.now()); spec != nil {
		duration = spec.Duration
	}

	if !a.resolver.IsFree(slot, duration) {
		return "", ErrSlotTaken
	}

	// The calendar rendering a different zone than the one events are
	// written in shows users shifted times; align it before the insert.
	if tz, err := a.calendar.GetTimezone(); err != nil {
		log.Printf("could not read calendar timezone: %v", err)
	} else if tz != a.loc.String() {
		if _, err := a.calendar.UpdateTimezone(a.loc.String()); err != nil {
			log.Printf("could not update calendar timezone: %v", err)
		}
	}

	end := slot.Add(duration)
	link, err := a.calendar.CreateEvent(gcal.EventInput{
		Title:       eventTitle,
		Description: utterance,
		StartTime:   slot,
		EndTime:     end,
		TimeZone:    a.loc.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	// Audit and notification are best-effort; the event already exists.
	if a.db != nil {
		if _, err := a.db.CreateBooking(session.ID, utterance, slot, end, link); err != nil {
			log.Printf("could not record booking: %v", err)
		}
	}
	if a.notifier != nil {
		conf := notify.Confirmation{
			Utterance: utterance,
			StartTime: slot,
			EndTime:   end,
			EventLink: link,
		}
		if err := a.notifier.Send(ctx, conf); err != nil {
			log.Printf("could not send booking confirmation: %v", err)
		}
	}

	formatted := slot.Format(bookedFormat)
	if duration > timeparse.DefaultDuration {
		return fmt.Sprintf(
			"Appointment booked successfully for %s to %s (%s timezone)!\n\nEvent link: %s",
			formatted, end.Format(endTimeFormat), a.loc.String(), link,
		), nil
	}
	return fmt.Sprintf(
		"Appointment booked successfully for %s (%s timezone)!\n\nEvent link: %s",
		formatted, a.loc.String(), link,
	), nil
}
