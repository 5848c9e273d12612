package conversation

import "errors"

// Error kinds surfaced from a chat turn. All are caught at the orchestrator
// boundary and converted to user-facing replies; none escape the HTTP handler
// as a failure.
var (
	// ErrExtractionFailure means every configured LLM provider failed.
	ErrExtractionFailure = errors.New("conversation: extraction failed on all providers")
	// ErrCalendarQuery means the availability lookup failed.
	ErrCalendarQuery = errors.New("conversation: calendar availability query failed")
	// ErrCalendarBooking means the event-creation call failed.
	ErrCalendarBooking = errors.New("conversation: calendar booking failed")
	// ErrInvalidSlotSelection means the chosen slot index is out of range or
	// the session has no offers pending.
	ErrInvalidSlotSelection = errors.New("conversation: invalid slot selection")
	// ErrSessionNotFound means a read-only lookup found no stored session.
	ErrSessionNotFound = errors.New("conversation: session not found")
)
