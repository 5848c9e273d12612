package conversation

import (
	"regexp"
	"strings"

	"calagent/internal/calendar"
)

// selectionKind classifies a message arriving while slots are on offer.
type selectionKind int

const (
	// selectionNone means the message is not a slot choice at all.
	selectionNone selectionKind = iota
	// selectionOutOfRange means a numeric choice outside [1, len(slots)].
	selectionOutOfRange
	// selectionValid means a usable choice; the returned index is 0-based.
	selectionValid
)

var (
	bareNumberRE    = regexp.MustCompile(`^\s*#?(\d{1,2})\s*[.)!]?\s*$`)
	numberPhraseRE  = regexp.MustCompile(`(?i)^\s*(?:option|number|slot)?\s*#?(\d{1,2})\s*(?:please|pls)?\s*[.)!]?\s*$`)
	ordinalPhrases  = map[string]int{"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5}
	ordinalPhraseRE = regexp.MustCompile(`(?i)^\s*(?:the\s+)?(first|second|third|fourth|fifth)\s*(?:one|option|slot)?\s*[.)!]?\s*$`)
)

// parseSlotSelection interprets a user message as a choice among the offered
// slots. Accepted forms: a bare 1-based number ("2", "2.", "option 2"), an
// ordinal ("the second one"), or an exact display-time match ("2:00 PM").
func parseSlotSelection(text string, slots []calendar.Slot) (int, selectionKind) {
	if len(slots) == 0 {
		return 0, selectionNone
	}

	choice := 0
	if m := bareNumberRE.FindStringSubmatch(text); m != nil {
		choice = atoi(m[1])
	} else if m := numberPhraseRE.FindStringSubmatch(text); m != nil {
		choice = atoi(m[1])
	} else if m := ordinalPhraseRE.FindStringSubmatch(text); m != nil {
		choice = ordinalPhrases[strings.ToLower(m[1])]
	}

	if choice > 0 {
		if choice <= len(slots) {
			return choice - 1, selectionValid
		}
		return 0, selectionOutOfRange
	}

	// Exact display match ("2:00 PM").
	trimmed := strings.ToLower(strings.TrimSpace(text))
	for i, slot := range slots {
		if trimmed == strings.ToLower(slot.Display) {
			return i, selectionValid
		}
	}

	return 0, selectionNone
}
