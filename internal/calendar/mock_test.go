package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calagent/pkg/logging"
)

// frozenClock returns a fixed "now" of Wed 2025-06-11 08:00 local time.
func frozenClock() func() time.Time {
	now := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func dayWindow(day time.Time) Window {
	return Window{
		Start:    time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location()),
		End:      time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, day.Location()),
		Duration: time.Hour,
	}
}

func TestMockListFreeSlotsDeterministic(t *testing.T) {
	c := NewMockClient(frozenClock(), logging.New("error"))
	tomorrow := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)

	first, err := c.ListFreeSlots(context.Background(), dayWindow(tomorrow))
	require.NoError(t, err)
	second, err := c.ListFreeSlots(context.Background(), dayWindow(tomorrow))
	require.NoError(t, err)

	assert.Equal(t, first, second, "mock slots must be stable across calls")
	require.Len(t, first, 3)
	assert.Equal(t, 9, first[0].Start.Hour())
	assert.Equal(t, 11, first[1].Start.Hour())
	assert.Equal(t, 14, first[2].Start.Hour())
	assert.Equal(t, "9:00 AM", first[0].Display)
}

func TestMockListFreeSlotsSkipsPast(t *testing.T) {
	// 13:00 on the requested day: 9 and 11 AM are gone.
	now := time.Date(2025, 6, 12, 13, 0, 0, 0, time.UTC)
	c := NewMockClient(func() time.Time { return now }, logging.New("error"))

	slots, err := c.ListFreeSlots(context.Background(), dayWindow(now))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 14, slots[0].Start.Hour())
	assert.Equal(t, 16, slots[1].Start.Hour())
}

func TestMockListFreeSlotsAfternoonWindow(t *testing.T) {
	c := NewMockClient(frozenClock(), logging.New("error"))
	day := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	window := Window{
		Start:    time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC),
		End:      time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, time.UTC),
		Duration: time.Hour,
	}

	slots, err := c.ListFreeSlots(context.Background(), window)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, 9, slots[0].Start.Hour())
	assert.Equal(t, 11, slots[1].Start.Hour())
	assert.Equal(t, 14, slots[2].Start.Hour())
}

func TestMockListFreeSlotsEveningWindow(t *testing.T) {
	c := NewMockClient(frozenClock(), logging.New("error"))
	day := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	window := Window{
		Start:    time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, time.UTC),
		End:      time.Date(day.Year(), day.Month(), day.Day(), 20, 0, 0, 0, time.UTC),
		Duration: time.Hour,
	}

	slots, err := c.ListFreeSlots(context.Background(), window)
	require.NoError(t, err)
	require.NotEmpty(t, slots, "a valid future window must always yield slots")
	require.Len(t, slots, 3)
	assert.Equal(t, 9, slots[0].Start.Hour())
	assert.Equal(t, 14, slots[2].Start.Hour())
}

func TestMockListFreeSlotsExplicitTimeWindow(t *testing.T) {
	c := NewMockClient(frozenClock(), logging.New("error"))
	day := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	window := Window{
		Start:    time.Date(day.Year(), day.Month(), day.Day(), 15, 0, 0, 0, time.UTC),
		End:      time.Date(day.Year(), day.Month(), day.Day(), 16, 0, 0, 0, time.UTC),
		Duration: time.Hour,
	}

	slots, err := c.ListFreeSlots(context.Background(), window)
	require.NoError(t, err)
	require.NotEmpty(t, slots, "a valid future window must always yield slots")
	require.Len(t, slots, 3)
	assert.Equal(t, []int{9, 11, 14}, []int{slots[0].Start.Hour(), slots[1].Start.Hour(), slots[2].Start.Hour()})
}

func TestMockListFreeSlotsSynthesizesWhenFixedHoursPassed(t *testing.T) {
	// 16:30 on the requested day: every fixed hour before the window end is
	// gone, so the mock anchors a slot at the window start instead.
	now := time.Date(2025, 6, 12, 16, 30, 0, 0, time.UTC)
	c := NewMockClient(func() time.Time { return now }, logging.New("error"))
	window := Window{
		Start:    time.Date(2025, 6, 12, 17, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 6, 12, 20, 0, 0, 0, time.UTC),
		Duration: time.Hour,
	}

	slots, err := c.ListFreeSlots(context.Background(), window)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, window.Start, slots[0].Start)
	assert.Equal(t, "5:00 PM", slots[0].Display)
}

func TestMockListFreeSlotsInvalidWindow(t *testing.T) {
	c := NewMockClient(frozenClock(), logging.New("error"))
	now := frozenClock()()
	_, err := c.ListFreeSlots(context.Background(), Window{Start: now, End: now.Add(-time.Hour)})
	assert.Error(t, err)
}

func TestMockBook(t *testing.T) {
	c := NewMockClient(frozenClock(), logging.New("error"))
	slot := Slot{
		Start:   time.Date(2025, 6, 12, 14, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 6, 12, 15, 0, 0, 0, time.UTC),
		Display: "2:00 PM",
	}

	booking, err := c.Book(context.Background(), slot, "Call - 2:00 PM")
	require.NoError(t, err)
	assert.Equal(t, "mock_event_1749736800", booking.EventID)
	assert.Equal(t, "Call - 2:00 PM", booking.Title)
	assert.Equal(t, slot.Start, booking.Start)
	assert.Contains(t, booking.HTMLLink, booking.EventID)
}

func TestDisplayFormats(t *testing.T) {
	ts := time.Date(2025, 6, 12, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "2:30 PM", DisplayTime(ts))
	assert.Equal(t, "Thursday, June 12 at 2:30 PM", DisplayDate(ts))
}
