package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"calagent/internal/calendar"
)

func offeredSlots() []calendar.Slot {
	base := day(12)
	return []calendar.Slot{
		{Start: base.Add(9 * time.Hour), End: base.Add(10 * time.Hour), Display: "9:00 AM"},
		{Start: base.Add(11 * time.Hour), End: base.Add(12 * time.Hour), Display: "11:00 AM"},
		{Start: base.Add(14 * time.Hour), End: base.Add(15 * time.Hour), Display: "2:00 PM"},
	}
}

func TestParseSlotSelection(t *testing.T) {
	slots := offeredSlots()

	tests := []struct {
		name string
		text string
		idx  int
		kind selectionKind
	}{
		{"bare number", "2", 1, selectionValid},
		{"number with period", "2.", 1, selectionValid},
		{"number with spaces", "  3  ", 2, selectionValid},
		{"hash prefix", "#1", 0, selectionValid},
		{"option phrase", "option 2", 1, selectionValid},
		{"number please", "2 please", 1, selectionValid},
		{"ordinal", "the second one", 1, selectionValid},
		{"exact display match", "2:00 PM", 2, selectionValid},
		{"display match case-insensitive", "2:00 pm", 2, selectionValid},
		{"out of range", "7", 0, selectionOutOfRange},
		{"zero is not a choice", "0", 0, selectionNone},
		{"free text", "tomorrow works better", 0, selectionNone},
		{"number inside sentence", "can we do 2 hours later", 0, selectionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, kind := parseSlotSelection(tt.text, slots)
			assert.Equal(t, tt.kind, kind)
			if kind == selectionValid {
				assert.Equal(t, tt.idx, idx)
			}
		})
	}
}

func TestParseSlotSelectionNoOffers(t *testing.T) {
	_, kind := parseSlotSelection("2", nil)
	assert.Equal(t, selectionNone, kind)
}
