package calendar

import (
	"context"
	"fmt"
	"time"

	"calagent/pkg/logging"
)

// mockSlotHours are the fixed local start hours the mock offers each day.
var mockSlotHours = []int{9, 11, 14, 16}

// maxMockSlots caps how many slots the mock returns per window.
const maxMockSlots = 3

// MockClient synthesizes deterministic availability without calling any
// calendar provider. Used in development and tests (CALENDAR_MOCK_MODE=true).
type MockClient struct {
	now    func() time.Time
	logger *logging.Logger
}

// NewMockClient creates a mock calendar client. A nil clock defaults to
// time.Now; tests inject a frozen clock for determinism.
func NewMockClient(clock func() time.Time, logger *logging.Logger) *MockClient {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MockClient{now: clock, logger: logger}
}

// ListFreeSlots returns up to three synthetic slots on the window's start day.
// Fixed hours before the window's end hour are offered first; if none of them
// are still in the future, a slot is synthesized at the window start so every
// valid future window yields at least one option.
func (c *MockClient) ListFreeSlots(_ context.Context, window Window) ([]Slot, error) {
	if window.End.Before(window.Start) {
		return nil, fmt.Errorf("calendar: invalid window %s..%s", window.Start, window.End)
	}
	duration := window.Duration
	if duration <= 0 {
		duration = time.Hour
	}

	day := window.Start
	now := c.now()
	var slots []Slot
	for _, hour := range mockSlotHours {
		if hour >= window.End.Hour() && window.End.Hour() != 0 {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
		if !start.After(now) {
			continue
		}
		slots = append(slots, Slot{
			Start:   start,
			End:     start.Add(duration),
			Display: DisplayTime(start),
		})
		if len(slots) == maxMockSlots {
			break
		}
	}
	if len(slots) == 0 {
		start := window.Start
		if !start.After(now) {
			start = now.Truncate(time.Hour).Add(time.Hour)
		}
		slots = append(slots, Slot{
			Start:   start,
			End:     start.Add(duration),
			Display: DisplayTime(start),
		})
	}

	c.logger.Debug("mock calendar: listed slots",
		"window_start", window.Start,
		"window_end", window.End,
		"count", len(slots),
	)
	return slots, nil
}

// Book fabricates a booking confirmation with a synthetic event id.
func (c *MockClient) Book(_ context.Context, slot Slot, title string) (*Booking, error) {
	eventID := fmt.Sprintf("mock_event_%d", slot.Start.Unix())
	c.logger.Info("mock calendar: event created",
		"event_id", eventID,
		"title", title,
		"start", slot.Start,
	)
	return &Booking{
		EventID:   eventID,
		Title:     title,
		Start:     slot.Start,
		End:       slot.End,
		HTMLLink:  fmt.Sprintf("https://calendar.google.com/calendar/event?eid=%s", eventID),
		CreatedAt: c.now(),
	}, nil
}
