package agent

import (
	"fmt"
	"strings"
	"time"
)

// DisplaySlots caps how many suggestions are shown in one reply, even though
// up to availability.MaxSlots are retained for selection by number.
const DisplaySlots = 5

const (
	slotFormat    = "Monday, January 2 at 3:04 PM"
	bookedFormat  = "January 2, 2006 at 3:04 PM"
	endTimeFormat = "3:04 PM"
)

// formatSlots renders a numbered list of the first DisplaySlots suggestions.
func formatSlots(slots []time.Time) string {
	if len(slots) == 0 {
		return "No available slots found."
	}

	var b strings.Builder
	for i, slot := range slots {
		if i >= DisplaySlots {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, slot.Format(slotFormat))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSlot(slot time.Time) string {
	return slot.Format(slotFormat)
}
