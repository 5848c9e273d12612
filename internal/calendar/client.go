package calendar

import (
	"context"
	"time"
)

// Slot is a candidate bookable time interval. Immutable once produced.
type Slot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Display string    `json:"display"`
}

// Window is the time range to search for availability.
type Window struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Booking is the confirmation returned after an event is created.
type Booking struct {
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	HTMLLink  string    `json:"html_link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Client lists free slots and creates events on a calendar backend.
//
// Book is not idempotent: calling it twice creates two events. Callers are
// responsible for invoking it at most once per confirmed selection.
type Client interface {
	ListFreeSlots(ctx context.Context, window Window) ([]Slot, error)
	Book(ctx context.Context, slot Slot, title string) (*Booking, error)
}

// DisplayTime formats a slot start the way it is shown to users.
func DisplayTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// DisplayDate formats the date portion of a slot for confirmations.
func DisplayDate(t time.Time) string {
	return t.Format("Monday, January 2 at 3:04 PM")
}
