package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"calagent/internal/calendar"
)

// Time-of-day buckets, in local hours.
const (
	morningStart   = 9
	morningEnd     = 12
	afternoonStart = 12
	afternoonEnd   = 17
	eveningStart   = 17
	eveningEnd     = 20
)

var (
	weekdayRE    = regexp.MustCompile(`(?i)\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	nextWeekRE   = regexp.MustCompile(`(?i)\bnext\s+week\b`)
	nextPrefixRE = regexp.MustCompile(`(?i)\bnext\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	clockTimeRE  = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	timeRangeRE  = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(?:am|pm)?\s*[-–—]\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	noonRE       = regexp.MustCompile(`(?i)\b(noon|midday)\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ResolveDay maps a free-form day expression to a concrete date, relative to
// now. The result is normalized to midnight in now's location. The boolean is
// false when nothing in the text names a day.
//
// Supported forms: "today", "tomorrow", weekday names ("Friday" means the
// next upcoming Friday), "next <weekday>", "next week" (its Monday).
func ResolveDay(raw string, now time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return time.Time{}, false
	}
	today := midnight(now)

	switch {
	case strings.Contains(text, "today"):
		return today, true
	case strings.Contains(text, "tomorrow"):
		return today.AddDate(0, 0, 1), true
	}

	if m := nextPrefixRE.FindStringSubmatch(text); len(m) == 2 {
		// "next Friday" resolves the same way as a bare "Friday": the first
		// upcoming occurrence.
		return nextWeekday(today, weekdays[strings.ToLower(m[1])]), true
	}

	if nextWeekRE.MatchString(text) {
		return nextWeekday(today, time.Monday), true
	}

	if m := weekdayRE.FindStringSubmatch(text); len(m) == 2 {
		return nextWeekday(today, weekdays[strings.ToLower(m[1])]), true
	}

	return time.Time{}, false
}

// nextWeekday returns the first occurrence of target strictly after today.
func nextWeekday(today time.Time, target time.Weekday) time.Time {
	ahead := int(target-today.Weekday()+7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return today.AddDate(0, 0, ahead)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ResolveWindow builds the availability window for a resolved day and a
// free-form time-of-day expression ("afternoon", "2 pm", "3-5 pm"). An empty
// or unrecognized expression yields the full working-hours window.
func ResolveWindow(day time.Time, timeOfDay string, slotDuration time.Duration, workStart, workEnd int) calendar.Window {
	if slotDuration <= 0 {
		slotDuration = time.Hour
	}
	startHour, startMin := workStart, 0
	endHour, endMin := workEnd, 0

	text := strings.ToLower(strings.TrimSpace(timeOfDay))
	switch {
	case text == "":
		// working hours
	case timeRangeRE.MatchString(text):
		if m := timeRangeRE.FindStringSubmatch(text); m != nil {
			meridiem := m[5]
			startHour, startMin = to24Hour(atoi(m[1]), atoi(m[2]), meridiem)
			endHour, endMin = to24Hour(atoi(m[3]), atoi(m[4]), meridiem)
			if endHour < startHour {
				// "11-2 pm" crosses noon; the first time was AM.
				startHour -= 12
			}
		}
	case clockTimeRE.MatchString(text):
		if m := clockTimeRE.FindStringSubmatch(text); m != nil {
			startHour, startMin = to24Hour(atoi(m[1]), atoi(m[2]), m[3])
			end := time.Date(0, 1, 1, startHour, startMin, 0, 0, time.UTC).Add(slotDuration)
			endHour, endMin = end.Hour(), end.Minute()
		}
	case noonRE.MatchString(text):
		startHour = 12
		end := time.Date(0, 1, 1, 12, 0, 0, 0, time.UTC).Add(slotDuration)
		endHour, endMin = end.Hour(), end.Minute()
	case strings.Contains(text, "morning"):
		startHour, endHour = morningStart, morningEnd
	case strings.Contains(text, "afternoon"):
		startHour, endHour = afternoonStart, afternoonEnd
	case strings.Contains(text, "evening"):
		startHour, endHour = eveningStart, eveningEnd
	}

	return calendar.Window{
		Start:    time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, day.Location()),
		End:      time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, day.Location()),
		Duration: slotDuration,
	}
}

// ResolveClockTime extracts an explicit clock time ("3 PM", "2:30pm", "noon")
// from a time-of-day expression. Vague buckets ("afternoon") and ranges
// ("3-5 pm") do not count; for those the caller should offer slots instead.
func ResolveClockTime(raw string) (hour, minute int, ok bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" || timeRangeRE.MatchString(text) {
		return 0, 0, false
	}
	if m := clockTimeRE.FindStringSubmatch(text); m != nil {
		hour, minute = to24Hour(atoi(m[1]), atoi(m[2]), m[3])
		return hour, minute, true
	}
	if noonRE.MatchString(text) {
		return 12, 0, true
	}
	return 0, 0, false
}

// to24Hour converts a 12-hour clock reading to 24-hour form.
func to24Hour(hour, minute int, meridiem string) (int, int) {
	meridiem = strings.ToLower(meridiem)
	if meridiem == "pm" && hour != 12 {
		hour += 12
	}
	if meridiem == "am" && hour == 12 {
		hour = 0
	}
	return hour, minute
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
