package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/skataria/bookingagent/internal/timeparse"
)

// Stage identifies where a conversation is in the booking dialogue.
type Stage string

const (
	StageInitial             Stage = "initial"
	StageAvailabilityCheck   Stage = "availability_check"
	StageBookingConfirmation Stage = "booking_confirmation"
	// StageBookingComplete is terminal; a session never rests here, it is
	// reset to initial in the same turn.
	StageBookingComplete Stage = "booking_complete"
)

// Session is the dialogue state for one conversation. The HTTP boundary owns
// the session id and serializes turns; the agent only ever sees one turn at a
// time for a given session.
//
// Invariants: SelectedSlot is set only in booking_confirmation (and
// transiently booking_complete); SuggestedSlots is non-empty only in
// availability_check.
type Session struct {
	ID               string              `json:"-"`
	Stage            Stage               `json:"stage"`
	SuggestedSlots   []time.Time         `json:"suggested_slots,omitempty"`
	SelectedSlot     *time.Time          `json:"selected_slot,omitempty"`
	LastRequested    *timeparse.TimeSpec `json:"last_requested,omitempty"`
	PendingUtterance string              `json:"pending_utterance,omitempty"`
}

// NewSession returns a session in the initial stage.
func NewSession(id string) *Session {
	return &Session{ID: id, Stage: StageInitial}
}

// Reset clears the session back to its initial defaults. Idempotent.
func (s *Session) Reset() {
	id := s.ID
	*s = Session{ID: id, Stage: StageInitial}
}

// Marshal serializes the session for the store.
func (s *Session) Marshal() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	return string(data), nil
}

// UnmarshalSession restores a session from its stored form. A payload that
// no longer parses yields a fresh initial session rather than an error; a
// corrupted session is recovered, not fatal.
func UnmarshalSession(id, state string) *Session {
	s := NewSession(id)
	if state == "" {
		return s
	}
	if err := json.Unmarshal([]byte(state), s); err != nil {
		return NewSession(id)
	}
	s.ID = id
	return s
}
