package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/skataria/bookingagent/internal/timeutil"
)

// DefaultDuration is assumed whenever an utterance doesn't express an
// explicit start-end range.
const DefaultDuration = 30 * time.Minute

// TimeSpec is the parser output: a start instant in the business zone, a
// duration, and whether the utterance expressed an explicit range rather
// than a single point. Never mutated after creation.
type TimeSpec struct {
	Start    time.Time
	Duration time.Duration
	IsRange  bool
}

// End returns the exclusive end of the spec's interval.
func (s TimeSpec) End() time.Time {
	return s.Start.Add(s.Duration)
}

// Parser resolves free-text time expressions against the business zone.
type Parser struct {
	loc      *time.Location
	fallback *when.Parser
}

func New(loc *time.Location) *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{loc: loc, fallback: w}
}

// Location returns the fixed business zone the parser resolves into.
func (p *Parser) Location() *time.Location {
	return p.loc
}

var (
	betweenPattern    = regexp.MustCompile(`between (\d{1,2})\s*[-–]\s*(\d{1,2})\s*(am|pm)?`)
	hourRangePattern  = regexp.MustCompile(`(\d{1,2})\s*(?:to|[-–])\s*(\d{1,2})\s*(am|pm)`)
	clockRangePattern = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(?:to|[-–])\s*(\d{1,2}):(\d{2})\s*(am|pm)?`)

	hourPeriodPattern = regexp.MustCompile(`(\d{1,2})\s*(am|pm)`)
	clockPattern      = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)?`)
	oclockPattern     = regexp.MustCompile(`(\d{1,2})\s*o'?clock`)
)

// timeRange is an explicit start-end expression, already in 24-hour clock.
type timeRange struct {
	startHour, startMinute int
	endHour, endMinute     int
}

func (r timeRange) duration() time.Duration {
	start := r.startHour*60 + r.startMinute
	end := r.endHour*60 + r.endMinute
	return time.Duration(end-start) * time.Minute
}

// Parse resolves an utterance to a single start instant in the business
// zone. Returns nil when no usable time can be extracted; failure to parse
// is an expected outcome, not an error.
func (p *Parser) Parse(utterance string, now time.Time) *TimeSpec {
	now = now.In(p.loc)
	lower := strings.ToLower(utterance)

	anchor, hasAnchor := p.extractAnchor(lower, now)

	// An explicit range resolves to its start bound here; ParseWithDuration
	// is the entry point that keeps the full range.
	if rng := extractRange(lower); rng != nil {
		date := anchor
		if !hasAnchor {
			date = nextBusinessDay(now)
		}
		start := timeutil.At(date, rng.startHour, rng.startMinute, p.loc)
		return &TimeSpec{Start: start, Duration: DefaultDuration}
	}

	if clock, ok := extractClock(lower); ok {
		hour := clock.to24Hour()
		if hour > 23 {
			return p.parseFallback(utterance, now)
		}
		if hasAnchor {
			return &TimeSpec{
				Start:    timeutil.At(anchor, hour, clock.minute, p.loc),
				Duration: DefaultDuration,
			}
		}
		// No date in the utterance: today at that hour, rolling to
		// tomorrow when the instant has already passed.
		start := timeutil.At(now, hour, clock.minute, p.loc)
		if !start.After(now) {
			start = start.AddDate(0, 0, 1)
		}
		return &TimeSpec{Start: start, Duration: DefaultDuration}
	}

	if hasAnchor {
		hour := qualitativeHour(lower)
		return &TimeSpec{
			Start:    timeutil.At(anchor, hour, 0, p.loc),
			Duration: DefaultDuration,
		}
	}

	return p.parseFallback(utterance, now)
}

// ParseWithDuration resolves an utterance keeping explicit ranges: a range
// yields its computed duration and IsRange=true, anything else defers to
// Parse with the default duration.
func (p *Parser) ParseWithDuration(utterance string, now time.Time) *TimeSpec {
	now = now.In(p.loc)
	lower := strings.ToLower(utterance)

	if rng := extractRange(lower); rng != nil {
		anchor, hasAnchor := p.extractAnchor(lower, now)
		if !hasAnchor {
			anchor = nextBusinessDay(now)
		}
		return &TimeSpec{
			Start:    timeutil.At(anchor, rng.startHour, rng.startMinute, p.loc),
			Duration: rng.duration(),
			IsRange:  true,
		}
	}

	return p.Parse(utterance, now)
}

// extractAnchor resolves the calendar date an expression is anchored to.
// First match wins: tomorrow, today, "next week" (next Monday, a full week
// out when today is Monday), then a bare weekday name (next occurrence
// strictly after today, one more week when "next" is present).
func (p *Parser) extractAnchor(lower string, now time.Time) (time.Time, bool) {
	switch {
	case strings.Contains(lower, "tomorrow"):
		return now.AddDate(0, 0, 1), true
	case strings.Contains(lower, "today"):
		return now, true
	case strings.Contains(lower, "next week"):
		days := (8 - int(now.Weekday())) % 7
		if days == 0 {
			days = 7
		}
		return now.AddDate(0, 0, days), true
	}

	weekdays := []struct {
		name string
		day  time.Weekday
	}{
		{"monday", time.Monday},
		{"tuesday", time.Tuesday},
		{"wednesday", time.Wednesday},
		{"thursday", time.Thursday},
		{"friday", time.Friday},
		{"saturday", time.Saturday},
		{"sunday", time.Sunday},
	}

	for _, wd := range weekdays {
		if !strings.Contains(lower, wd.name) {
			continue
		}
		days := int(wd.day) - int(now.Weekday())
		if days <= 0 {
			days += 7
		}
		if strings.Contains(lower, "next") {
			days += 7
		}
		return now.AddDate(0, 0, days), true
	}

	return time.Time{}, false
}

// extractRange matches "between H-H", "H to H am/pm" and "H:MM to H:MM"
// expressions. The period suffix applies to both bounds. Inverted or empty
// ranges ("between 4-2 pm") are rejected rather than wrapped.
func extractRange(lower string) *timeRange {
	if m := betweenPattern.FindStringSubmatch(lower); m != nil {
		return buildHourRange(m[1], m[2], m[3])
	}
	if m := hourRangePattern.FindStringSubmatch(lower); m != nil {
		return buildHourRange(m[1], m[2], m[3])
	}
	if m := clockRangePattern.FindStringSubmatch(lower); m != nil {
		return validRange(&timeRange{
			startHour:   applyPeriod(atoi(m[1]), m[5]),
			startMinute: atoi(m[2]),
			endHour:     applyPeriod(atoi(m[3]), m[5]),
			endMinute:   atoi(m[4]),
		})
	}
	return nil
}

func buildHourRange(startStr, endStr, period string) *timeRange {
	startHour := applyPeriod(atoi(startStr), period)
	endHour := applyPeriod(atoi(endStr), period)
	return validRange(&timeRange{startHour: startHour, endHour: endHour})
}

func validRange(rng *timeRange) *timeRange {
	if rng.startHour < 0 || rng.startHour > 23 || rng.endHour < 0 || rng.endHour > 23 {
		return nil
	}
	if rng.duration() <= 0 {
		return nil
	}
	return rng
}

// applyPeriod converts a 12-hour clock hour with an optional am/pm suffix
// into 24-hour clock: pm and hour!=12 adds 12, am and hour==12 is midnight.
func applyPeriod(hour int, period string) int {
	switch period {
	case "pm":
		if hour != 12 {
			return hour + 12
		}
	case "am":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// clockMatch is a single extracted clock time, pre-conversion.
type clockMatch struct {
	hour, minute int
	period       string // "am", "pm" or ""
	evening      bool
}

func (c clockMatch) to24Hour() int {
	hour := applyPeriod(c.hour, c.period)
	// Qualitative evening/night context pushes an ambiguous morning hour
	// into the evening; an explicit am/pm wins.
	if c.evening && c.period == "" && hour < 12 {
		hour += 12
	}
	return hour
}

// extractClock matches single-time expressions: "H:MM", "H am/pm", "H o'clock".
// The colon form is tried first so "3:45 pm" can't half-match as "45 pm".
func extractClock(lower string) (clockMatch, bool) {
	evening := strings.Contains(lower, "evening") || strings.Contains(lower, "night")

	if m := clockPattern.FindStringSubmatch(lower); m != nil {
		return clockMatch{hour: atoi(m[1]), minute: atoi(m[2]), period: m[3], evening: evening}, true
	}
	if m := hourPeriodPattern.FindStringSubmatch(lower); m != nil {
		return clockMatch{hour: atoi(m[1]), period: m[2], evening: evening}, true
	}
	if m := oclockPattern.FindStringSubmatch(lower); m != nil {
		return clockMatch{hour: atoi(m[1]), evening: evening}, true
	}
	return clockMatch{}, false
}

// qualitativeHour maps period-of-day words to a default clock hour.
func qualitativeHour(lower string) int {
	switch {
	case strings.Contains(lower, "afternoon"):
		return 14
	case strings.Contains(lower, "morning"):
		return 10
	case strings.Contains(lower, "evening"), strings.Contains(lower, "night"):
		return 19
	default:
		return 10
	}
}

// parseFallback delegates to a general-purpose natural language date parser
// configured for the business zone.
func (p *Parser) parseFallback(utterance string, now time.Time) *TimeSpec {
	result, err := p.fallback.Parse(utterance, now)
	if err != nil || result == nil {
		return nil
	}
	return &TimeSpec{Start: result.Time.In(p.loc), Duration: DefaultDuration}
}

// nextBusinessDay returns tomorrow, skipping over the weekend.
func nextBusinessDay(now time.Time) time.Time {
	day := now.AddDate(0, 0, 1)
	for !timeutil.IsWeekday(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
