package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skataria/bookingagent/internal/availability"
	"github.com/skataria/bookingagent/internal/database"
	"github.com/skataria/bookingagent/internal/testutil"
	"github.com/skataria/bookingagent/internal/timeparse"
)

// All turns run against a pinned clock: Wednesday 2025-06-25 11:00 in the
// business zone.
func testClock(t *testing.T) (time.Time, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return time.Date(2025, 6, 25, 11, 0, 0, 0, loc), loc
}

type agentFixture struct {
	agent    *Agent
	calendar *testutil.FakeCalendar
	chat     *testutil.FakeCompleter
	db       *database.DB
	now      time.Time
	loc      *time.Location
}

func newAgentFixture(t *testing.T) *agentFixture {
	t.Helper()
	now, loc := testClock(t)

	calendar := testutil.NewFakeCalendar(loc.String())
	chat := &testutil.FakeCompleter{}
	db := database.NewTestDB(t)

	a := New(Config{
		Parser:    timeparse.New(loc),
		Resolver:  availability.New(calendar, loc).WithClock(func() time.Time { return now }),
		Calendar:  calendar,
		Completer: chat,
		DB:        db,
	})
	a.now = func() time.Time { return now }

	return &agentFixture{agent: a, calendar: calendar, chat: chat, db: db, now: now, loc: loc}
}

func (f *agentFixture) at(day, hour, minute int) time.Time {
	return time.Date(2025, 6, day, hour, minute, 0, 0, f.loc)
}

func TestExactSlotBookingFlow(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()
	session := NewSession("s1")

	reply := f.agent.ProcessTurn(ctx, session, "Book a meeting tomorrow at 3 pm")
	assert.Contains(t, reply, "Great! I found that Thursday, June 26 at 3:00 PM is available")
	assert.Equal(t, StageBookingConfirmation, session.Stage)
	require.NotNil(t, session.SelectedSlot)
	assert.Empty(t, session.SuggestedSlots)

	reply = f.agent.ProcessTurn(ctx, session, "yes")
	assert.Contains(t, reply, "Appointment booked successfully for June 26, 2025 at 3:00 PM")
	assert.Contains(t, reply, "Event link: ")
	assert.Equal(t, StageInitial, session.Stage)
	assert.Nil(t, session.SelectedSlot)

	created := f.calendar.CreatedEvents()
	require.Len(t, created, 1)
	assert.Equal(t, "Meeting via AI Booking Agent", created[0].Title)
	assert.Equal(t, "Book a meeting tomorrow at 3 pm", created[0].Description)
	assert.True(t, created[0].StartTime.Equal(f.at(26, 15, 0)))
	assert.True(t, created[0].EndTime.Equal(f.at(26, 15, 30)))

	bookings, err := f.db.ListBookings(10)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "s1", bookings[0].SessionID)
}

func TestBusySlotOffersAlternatives(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()
	session := NewSession("s1")

	f.calendar.AddEvent("standup", f.at(26, 15, 0), f.at(26, 15, 30))

	reply := f.agent.ProcessTurn(ctx, session, "Book a meeting tomorrow at 3 pm")
	assert.Contains(t, reply, "The exact time you requested isn't available")
	assert.Contains(t, reply, "1. Thursday, June 26 at 9:00 AM")
	assert.Contains(t, reply, "2. Thursday, June 26 at 9:30 AM")
	assert.Equal(t, StageAvailabilityCheck, session.Stage)
	assert.Len(t, session.SuggestedSlots, availability.MaxSlots)

	reply = f.agent.ProcessTurn(ctx, session, "2")
	assert.Contains(t, reply, "You've selected Thursday, June 26 at 9:30 AM")
	assert.Equal(t, StageBookingConfirmation, session.Stage)
	assert.Empty(t, session.SuggestedSlots)

	reply = f.agent.ProcessTurn(ctx, session, "yes")
	assert.Contains(t, reply, "Appointment booked successfully")

	created := f.calendar.CreatedEvents()
	require.Len(t, created, 1)
	assert.True(t, created[0].StartTime.Equal(f.at(26, 9, 30)))
}

func TestFullyBookedDay(t *testing.T) {
	f := newAgentFixture(t)
	session := NewSession("s1")

	// An all-day event blocks every slot that Friday.
	f.calendar.AddAllDayEvent("offsite", f.at(27, 0, 0))

	reply := f.agent.ProcessTurn(context.Background(), session, "Book a meeting friday at 10 am")
	assert.Contains(t, reply, "I couldn't find any available slots for that time")
	assert.Equal(t, StageInitial, session.Stage)
	assert.Empty(t, f.calendar.CreatedEvents())
}

func TestAvailabilityOnFullyBookedDay(t *testing.T) {
	f := newAgentFixture(t)
	session := NewSession("s1")

	f.calendar.AddAllDayEvent("offsite", f.at(27, 0, 0))

	reply := f.agent.ProcessTurn(context.Background(), session, "available this Friday?")
	assert.Contains(t, reply, "I don't have any available slots for that time period")
	assert.Equal(t, StageInitial, session.Stage)
}

func TestCancelAtConfirmation(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()
	session := NewSession("s1")

	f.agent.ProcessTurn(ctx, session, "Book a meeting tomorrow at 3 pm")
	require.Equal(t, StageBookingConfirmation, session.Stage)

	reply := f.agent.ProcessTurn(ctx, session, "no")
	assert.Contains(t, reply, "No problem")
	assert.Equal(t, StageInitial, session.Stage)
	assert.Nil(t, session.SelectedSlot)
	assert.Empty(t, f.calendar.CreatedEvents())
}

func TestOutOfRangeSelection(t *testing.T) {
	f := newAgentFixture(t)
	session := NewSession("s1")
	session.Stage = StageAvailabilityCheck
	session.SuggestedSlots = []time.Time{
		f.at(26, 9, 0), f.at(26, 9, 30), f.at(26, 10, 0),
	}

	reply := f.agent.ProcessTurn(context.Background(), session, "5")
	assert.Equal(t, "Please select a number between 1 and 3.", reply)
	assert.Equal(t, StageAvailabilityCheck, session.Stage)
	assert.Len(t, session.SuggestedSlots, 3)
}

func TestRangeRequestSuggestsAlternatives(t *testing.T) {
	f := newAgentFixture(t)
	session := NewSession("s1")

	// The full 2-hour window Monday is blocked in the middle.
	f.calendar.AddEvent("review", f.at(30, 15, 0), f.at(30, 15, 30))

	reply := f.agent.ProcessTurn(context.Background(), session, "Schedule a call between 2-4 PM next week")
	assert.Contains(t, reply, "The exact 2-hour time slot you requested isn't available")
	assert.Contains(t, reply, "Which slot would you prefer?")
	assert.Equal(t, StageAvailabilityCheck, session.Stage)
}

func TestExactRangeBookingKeepsDuration(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()
	session := NewSession("s1")

	reply := f.agent.ProcessTurn(ctx, session, "Schedule a call between 2-4 PM next week")
	assert.Contains(t, reply, "Great! I found that Monday, June 30 at 2:00 PM to 4:00 PM is available")
	require.Equal(t, StageBookingConfirmation, session.Stage)

	reply = f.agent.ProcessTurn(ctx, session, "yes")
	assert.Contains(t, reply, "to 4:00 PM")

	created := f.calendar.CreatedEvents()
	require.Len(t, created, 1)
	assert.True(t, created[0].StartTime.Equal(f.at(30, 14, 0)))
	assert.True(t, created[0].EndTime.Equal(f.at(30, 16, 0)))
}

func TestSlotTakenBetweenSuggestionAndConfirm(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()
	session := NewSession("s1")

	f.agent.ProcessTurn(ctx, session, "Book a meeting tomorrow at 3 pm")
	require.Equal(t, StageBookingConfirmation, session.Stage)

	// Someone else takes the slot before the user confirms.
	f.calendar.AddEvent("intruder", f.at(26, 15, 0), f.at(26, 15, 30))

	reply := f.agent.ProcessTurn(ctx, session, "yes")
	assert.Contains(t, reply, "This time slot is no longer available")
	assert.Contains(t, reply, "Which slot would you prefer?")
	assert.Equal(t, StageAvailabilityCheck, session.Stage)
	assert.NotEmpty(t, session.SuggestedSlots)
	assert.Nil(t, session.SelectedSlot)
	assert.Empty(t, f.calendar.CreatedEvents())
}

func TestAvailabilityIntent(t *testing.T) {
	f := newAgentFixture(t)
	session := NewSession("s1")

	reply := f.agent.ProcessTurn(context.Background(), session, "What slots are open tomorrow?")
	assert.Contains(t, reply, "Here are the available time slots:")
	assert.Equal(t, StageAvailabilityCheck, session.Stage)
	assert.NotEmpty(t, session.SuggestedSlots)
}

func TestGeneralChitchat(t *testing.T) {
	f := newAgentFixture(t)
	f.chat.Reply = "Hi! Nice to meet you."
	session := NewSession("s1")

	reply := f.agent.ProcessTurn(context.Background(), session, "hello there")
	assert.Contains(t, reply, "Hi! Nice to meet you.")
	assert.Contains(t, reply, "I can help you book appointments")
	assert.Equal(t, StageInitial, session.Stage)
	assert.Equal(t, []string{"hello there"}, f.chat.Calls())
}

func TestCompleterFailureRecovers(t *testing.T) {
	f := newAgentFixture(t)
	f.chat.Err = assert.AnError
	session := NewSession("s1")

	reply := f.agent.ProcessTurn(context.Background(), session, "hello there")
	assert.Contains(t, reply, "Let me help you start fresh")
	assert.Equal(t, StageInitial, session.Stage)
}

func TestClarificationOverride(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()
	session := NewSession("s1")

	t.Run("without prior request", func(t *testing.T) {
		reply := f.agent.ProcessTurn(ctx, session, "why not earlier?")
		assert.Contains(t, reply, "specify the exact time")
	})

	t.Run("with prior request", func(t *testing.T) {
		f.agent.ProcessTurn(ctx, session, "Book a meeting tomorrow at 3 pm")
		reply := f.agent.ProcessTurn(ctx, session, "why can't I have it later?")
		assert.Contains(t, reply, "outside business hours")
	})
}

func TestUnknownStageResets(t *testing.T) {
	f := newAgentFixture(t)
	session := NewSession("s1")
	session.Stage = Stage("garbage")

	reply := f.agent.ProcessTurn(context.Background(), session, "Book a meeting tomorrow at 3 pm")
	assert.Contains(t, reply, "Great! I found that")
	assert.Equal(t, StageBookingConfirmation, session.Stage)
}

type panickyCompleter struct{}

func (panickyCompleter) Complete(context.Context, string, string) (string, error) {
	panic("completer blew up")
}

func TestPanicRecovery(t *testing.T) {
	f := newAgentFixture(t)
	f.agent.completer = panickyCompleter{}
	session := NewSession("s1")

	reply := f.agent.ProcessTurn(context.Background(), session, "hello there")
	assert.Contains(t, reply, "I encountered an error")
	assert.Equal(t, StageInitial, session.Stage)
}
