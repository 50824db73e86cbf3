package agent

import (
	"regexp"
	"strings"
)

// Intent is the coarse classification of a single utterance.
type Intent string

const (
	IntentBooking       Intent = "booking"
	IntentAvailability  Intent = "availability"
	IntentConfirmation  Intent = "confirmation"
	IntentSlotSelection Intent = "slot_selection"
	IntentGeneral       Intent = "general"
)

// Classifier maps an utterance to an Intent. Kept behind an interface so the
// keyword rules can later be swapped for a model-based classifier without
// touching the state machine.
type Classifier interface {
	Classify(utterance string) Intent
}

// KeywordClassifier is an ordered keyword-membership classifier. Fixed
// vocabularies, no fuzzy matching; the first matching rule wins.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var (
	bookingKeywords      = []string{"book", "schedule", "appointment", "meeting", "call", "reserve"}
	availabilityKeywords = []string{"available", "free", "time", "when", "slot"}
	confirmationKeywords = []string{"yes", "confirm", "ok", "sure", "book it", "that works"}

	digitPattern = regexp.MustCompile(`\b\d+\b`)
)

func (c *KeywordClassifier) Classify(utterance string) Intent {
	lower := strings.ToLower(utterance)

	switch {
	case containsAny(lower, bookingKeywords):
		return IntentBooking
	case containsAny(lower, availabilityKeywords):
		return IntentAvailability
	case containsAny(lower, confirmationKeywords):
		return IntentConfirmation
	case digitPattern.MatchString(utterance):
		return IntentSlotSelection
	default:
		return IntentGeneral
	}
}

// extractSlotNumber pulls the first bare number out of an utterance.
func extractSlotNumber(utterance string) (int, bool) {
	m := digitPattern.FindString(utterance)
	if m == "" {
		return 0, false
	}
	n := 0
	for _, r := range m {
		n = n*10 + int(r-'0')
	}
	return n, true
}

func containsAny(text string, values []string) bool {
	for _, v := range values {
		if strings.Contains(text, v) {
			return true
		}
	}
	return false
}
