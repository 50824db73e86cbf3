// Package testutil provides in-memory fakes for the agent's collaborators.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skataria/bookingagent/internal/gcal"
)

// FakeCalendar simulates the external calendar for testing. It satisfies
// both the availability read side and the booking write side.
type FakeCalendar struct {
	mu        sync.Mutex
	events    []gcal.EventDetails
	created   []gcal.EventInput
	timezone  string
	listErr   error
	createErr error
	nextID    int
}

// NewFakeCalendar creates an empty fake calendar in the given zone.
func NewFakeCalendar(timezone string) *FakeCalendar {
	return &FakeCalendar{timezone: timezone}
}

// AddEvent adds a timed event occupying [start, end).
func (f *FakeCalendar) AddEvent(summary string, start, end time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.events = append(f.events, gcal.EventDetails{
		ID:        fmt.Sprintf("evt-%d", f.nextID),
		Summary:   summary,
		StartTime: start,
		EndTime:   end,
	})
}

// AddAllDayEvent adds an all-day event spanning the given date.
func (f *FakeCalendar) AddAllDayEvent(summary string, date time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	f.events = append(f.events, gcal.EventDetails{
		ID:        fmt.Sprintf("evt-%d", f.nextID),
		Summary:   summary,
		StartTime: midnight,
		EndTime:   midnight.AddDate(0, 0, 1),
		AllDay:    true,
	})
}

// SetListError makes every subsequent list call fail.
func (f *FakeCalendar) SetListError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// SetCreateError makes every subsequent create call fail.
func (f *FakeCalendar) SetCreateError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

// ListEventsInRange returns events overlapping [timeMin, timeMax).
func (f *FakeCalendar) ListEventsInRange(timeMin, timeMax time.Time) ([]gcal.EventDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []gcal.EventDetails
	for _, event := range f.events {
		if timeMin.Before(event.EndTime) && timeMax.After(event.StartTime) {
			out = append(out, event)
		}
	}
	return out, nil
}

// CreateEvent records the input and occupies the event's interval, so a
// created event immediately shows up as a conflict.
func (f *FakeCalendar) CreateEvent(input gcal.EventInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	f.created = append(f.created, input)
	f.events = append(f.events, gcal.EventDetails{
		ID:        fmt.Sprintf("evt-%d", f.nextID),
		Summary:   input.Title,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	})
	return fmt.Sprintf("https://calendar.example.com/event/%d", f.nextID), nil
}

// CreatedEvents returns every event created through CreateEvent.
func (f *FakeCalendar) CreatedEvents() []gcal.EventInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gcal.EventInput{}, f.created...)
}

// GetTimezone returns the calendar's timezone.
func (f *FakeCalendar) GetTimezone() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timezone, nil
}

// UpdateTimezone sets the calendar's timezone.
func (f *FakeCalendar) UpdateTimezone(timezone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timezone = timezone
	return f.timezone, nil
}

// FakeCompleter simulates the chat completion collaborator.
type FakeCompleter struct {
	mu    sync.Mutex
	Reply string
	Err   error
	calls []string
}

// Complete returns the canned reply, recording the user message.
func (f *FakeCompleter) Complete(_ context.Context, _ string, userMessage string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userMessage)
	if f.Err != nil {
		return "", f.Err
	}
	if f.Reply == "" {
		return "Hello! How can I help you today?", nil
	}
	return f.Reply, nil
}

// Calls returns the user messages passed to Complete.
func (f *FakeCompleter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}
