package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/skataria/bookingagent/internal/availability"
	"github.com/skataria/bookingagent/internal/claude"
	"github.com/skataria/bookingagent/internal/database"
	"github.com/skataria/bookingagent/internal/notify"
	"github.com/skataria/bookingagent/internal/timeparse"
	"github.com/skataria/bookingagent/internal/timeutil"
)

// Completer is the chat collaborator used only for utterances with no
// scheduling intent.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

const (
	steeringSentence = "\n\nI can help you book appointments on your calendar. Just let me know when you'd like to schedule something!"

	recoveryMessage = "I encountered an error processing your request. Let me help you start fresh - what would you like to schedule? " +
		"You can try phrases like 'Book a meeting tomorrow at 3 PM' or 'Schedule a call between 2-4 PM next week'."
)

// Agent is the conversation state machine. It holds no per-dialogue state
// itself; the caller passes the Session in on every turn.
type Agent struct {
	parser     *timeparse.Parser
	resolver   *availability.Resolver
	calendar   CalendarWriter
	completer  Completer
	classifier Classifier
	db         *database.DB
	notifier   notify.Notifier
	loc        *time.Location
	now        func() time.Time
}

// Config wires the agent's collaborators. DB and Notifier are optional.
type Config struct {
	Parser    *timeparse.Parser
	Resolver  *availability.Resolver
	Calendar  CalendarWriter
	Completer Completer
	DB        *database.DB
	Notifier  notify.Notifier
}

func New(cfg Config) *Agent {
	return &Agent{
		parser:     cfg.Parser,
		resolver:   cfg.Resolver,
		calendar:   cfg.Calendar,
		completer:  cfg.Completer,
		classifier: NewKeywordClassifier(),
		db:         cfg.DB,
		notifier:   cfg.Notifier,
		loc:        cfg.Parser.Location(),
		now:        time.Now,
	}
}

// ProcessTurn handles one user utterance against the given session and
// returns the assistant's reply. Every failure path degrades to a textual
// response; nothing escapes to the caller.
func (a *Agent) ProcessTurn(ctx context.Context, session *Session, utterance string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("turn handler panicked: %v", r)
			session.Reset()
			reply = recoveryMessage
		}
	}()

	lower := strings.ToLower(utterance)
	intent := a.classifier.Classify(utterance)

	// Clarification override: answered the same way in every stage.
	if containsAny(lower, []string{"why not", "why can't", "what about"}) {
		if session.LastRequested != nil {
			return "The specific time you requested might be outside business hours (9 AM - 6 PM on weekdays) or may conflict with an existing appointment. " +
				"Let me check for the exact time you want - could you specify the exact time again?"
		}
		return "Let me help you find the exact time you're looking for. Could you please specify the exact time you'd prefer?"
	}

	// A stage outside the known set is a corrupted session: recover by
	// resetting and handling the turn as a fresh conversation. Explicit
	// default transition, no re-dispatch recursion.
	switch session.Stage {
	case StageInitial, StageAvailabilityCheck, StageBookingConfirmation:
	default:
		session.Reset()
	}

	switch session.Stage {
	case StageAvailabilityCheck:
		return a.handleAvailabilityCheckStage(session, utterance, intent)
	case StageBookingConfirmation:
		return a.handleConfirmationStage(ctx, session, utterance, intent, lower)
	default:
		return a.handleInitialStage(ctx, session, utterance, intent)
	}
}

func (a *Agent) handleInitialStage(ctx context.Context, session *Session, utterance string, intent Intent) string {
	switch intent {
	case IntentBooking:
		// Remembered only for "why not" clarifications; a failed parse
		// here is silently ignored.
		if spec := a.parser.ParseWithDuration(utterance, a.now()); spec != nil {
			session.LastRequested = spec
		}
		return a.handleBookingIntent(session, utterance)

	case IntentAvailability:
		return a.handleAvailabilityIntent(session, utterance)

	default:
		reply, err := a.completer.Complete(ctx, claude.PersonaPrompt, utterance)
		if err != nil {
			log.Printf("chat completion failed: %v", err)
			session.Reset()
			return recoveryMessage
		}
		return reply + steeringSentence
	}
}

// handleBookingIntent drives the slot suggestion flow for an explicit
// booking request.
func (a *Agent) handleBookingIntent(session *Session, utterance string) string {
	now := a.now()
	spec := a.parser.ParseWithDuration(utterance, now)
	slots := a.suggestSlots(utterance, now)

	if spec != nil {
		// A singleton matching the requested time means the exact slot is
		// free. Compared at minute granularity so independently computed
		// instants can't miss on sub-minute drift.
		if len(slots) == 1 && timeutil.SameMinute(slots[0], spec.Start) {
			selected := slots[0]
			session.SelectedSlot = &selected
			session.SuggestedSlots = nil
			session.PendingUtterance = utterance
			session.Stage = StageBookingConfirmation

			if spec.IsRange && spec.Duration > timeparse.DefaultDuration {
				return fmt.Sprintf(
					"Great! I found that %s to %s is available. Would you like me to book this appointment for you?",
					formatSlot(selected), spec.End().Format(endTimeFormat),
				)
			}
			return fmt.Sprintf(
				"Great! I found that %s is available. Would you like me to book this appointment for you?",
				formatSlot(selected),
			)
		}

		if len(slots) > 0 {
			session.SuggestedSlots = slots
			session.PendingUtterance = utterance
			session.Stage = StageAvailabilityCheck

			if spec.IsRange && spec.Duration > timeparse.DefaultDuration {
				return fmt.Sprintf(
					"The exact %d-hour time slot you requested isn't available, but I found these alternatives:\n\n%s\n\nWhich slot would you prefer? Just reply with the number.",
					int(spec.Duration.Hours()), formatSlots(slots),
				)
			}
			return fmt.Sprintf(
				"The exact time you requested isn't available, but I found these alternatives:\n\n%s\n\nWhich slot would you prefer? Just reply with the number.",
				formatSlots(slots),
			)
		}

		return "I couldn't find any available slots for that time. Could you try a different time or date?"
	}

	if len(slots) > 0 {
		session.SuggestedSlots = slots
		session.PendingUtterance = utterance
		session.Stage = StageAvailabilityCheck
		return fmt.Sprintf(
			"I'd be happy to help you schedule an appointment! Here are some available time slots:\n\n%s\n\nWhich slot works best for you? Just reply with the number.",
			formatSlots(slots),
		)
	}

	return "I couldn't find any available slots. Please try a different time range."
}

func (a *Agent) handleAvailabilityIntent(session *Session, utterance string) string {
	slots := a.suggestSlots(utterance, a.now())

	if len(slots) == 0 {
		return "I don't have any available slots for that time period. Could you try a different time or date?"
	}

	session.SuggestedSlots = slots
	session.PendingUtterance = utterance
	session.Stage = StageAvailabilityCheck
	return fmt.Sprintf(
		"Here are the available time slots:\n\n%s\n\nWould you like to book any of these? Just reply with the number.",
		formatSlots(slots),
	)
}

func (a *Agent) handleAvailabilityCheckStage(session *Session, utterance string, intent Intent) string {
	switch intent {
	case IntentSlotSelection:
		return a.handleSlotSelection(session, utterance)
	case IntentBooking, IntentConfirmation:
		// "book 2" or "yes, number 2" still selects a slot.
		if digitPattern.MatchString(utterance) {
			return a.handleSlotSelection(session, utterance)
		}
		return "Which time slot would you like to book? Please reply with the number of your preferred slot."
	default:
		return "Which time slot would you like to book? Please reply with the number (1, 2, 3, etc.) of your preferred time."
	}
}

func (a *Agent) handleSlotSelection(session *Session, utterance string) string {
	n, ok := extractSlotNumber(utterance)
	if !ok {
		return "I didn't understand which slot you'd like. Please reply with the number of your preferred time slot."
	}

	if n < 1 || n > len(session.SuggestedSlots) {
		return fmt.Sprintf("Please select a number between 1 and %d.", len(session.SuggestedSlots))
	}

	selected := session.SuggestedSlots[n-1]
	session.SelectedSlot = &selected
	session.SuggestedSlots = nil
	session.Stage = StageBookingConfirmation
	return fmt.Sprintf(
		"Perfect! You've selected %s. Shall I go ahead and book this appointment for you?",
		formatSlot(selected),
	)
}

func (a *Agent) handleConfirmationStage(ctx context.Context, session *Session, utterance string, intent Intent, lower string) string {
	switch {
	case intent == IntentConfirmation || strings.Contains(lower, "yes") || strings.Contains(lower, "confirm"):
		return a.handleConfirmation(ctx, session, utterance)

	case strings.Contains(lower, "no") || strings.Contains(lower, "cancel"):
		session.Reset()
		return "No problem! Let me know if you'd like to schedule a different time."

	default:
		return "Should I go ahead and book this appointment? Please reply with 'yes' to confirm or 'no' to cancel."
	}
}

func (a *Agent) handleConfirmation(ctx context.Context, session *Session, utterance string) string {
	if session.SelectedSlot == nil {
		return "I don't have a time slot selected. Please choose a time slot first."
	}

	selected := *session.SelectedSlot
	original := session.PendingUtterance
	if original == "" {
		original = utterance
	}

	result, err := a.bookAppointment(ctx, session, original, selected)
	if err == nil {
		session.Stage = StageBookingComplete
		session.Reset()
		return result
	}

	switch {
	case errors.Is(err, ErrSlotTaken):
		// The slot was taken between suggestion and commit. Keep the
		// conversation alive: offer fresh same-day alternatives.
		session.SelectedSlot = nil
		slots := a.resolver.FindAvailableSlots(selected, selected, timeparse.DefaultDuration)
		if len(slots) > 0 {
			session.SuggestedSlots = slots
			session.Stage = StageAvailabilityCheck
			return fmt.Sprintf(
				"This time slot is no longer available. Here are some alternatives:\n\n%s\n\nWhich slot would you prefer? Just reply with the number.",
				formatSlots(slots),
			)
		}
		session.Reset()
		return "This time slot is no longer available. Could you try a different time or date?"

	case errors.Is(err, ErrInvalidSlot):
		session.Reset()
		return "Invalid time format. Please choose a time slot first."

	default:
		log.Printf("booking failed: %v", err)
		session.Reset()
		return "Failed to create the appointment. Please try again."
	}
}

// suggestSlots implements the suggestion flow: exact requested slot when
// free, same-day alternatives when busy, a general next-7-days search when
// the utterance carried no usable time.
func (a *Agent) suggestSlots(utterance string, now time.Time) []time.Time {
	spec := a.parser.ParseWithDuration(utterance, now)

	if spec != nil {
		if a.resolver.IsFree(spec.Start, spec.Duration) {
			return []time.Time{spec.Start}
		}
		return a.resolver.FindAvailableSlots(spec.Start, spec.Start, timeparse.DefaultDuration)
	}

	return a.resolver.FindAvailableSlots(now, now.AddDate(0, 0, 7), timeparse.DefaultDuration)
}
