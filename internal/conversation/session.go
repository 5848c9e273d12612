package conversation

import (
	"fmt"
	"time"

	"calagent/internal/calendar"
)

// Stage is the conversation's position in the booking flow.
type Stage string

const (
	StageGreeting             Stage = "greeting"
	StageCollectingDetails    Stage = "collecting_details"
	StageOfferingSlots        Stage = "offering_slots"
	StageAwaitingConfirmation Stage = "awaiting_confirmation"
	StageDone                 Stage = "done"
)

// allowedTransitions is the exhaustive edge set of the booking flow. Stages
// only move forward, except that new incomplete information loops back to
// collecting_details. A direct booking at an explicit clock time skips the
// offer stages and jumps straight to done.
var allowedTransitions = map[Stage][]Stage{
	StageGreeting:             {StageCollectingDetails, StageOfferingSlots, StageDone},
	StageCollectingDetails:    {StageCollectingDetails, StageOfferingSlots, StageDone},
	StageOfferingSlots:        {StageCollectingDetails, StageOfferingSlots, StageAwaitingConfirmation, StageDone},
	StageAwaitingConfirmation: {StageCollectingDetails, StageOfferingSlots, StageAwaitingConfirmation, StageDone},
	StageDone:                 {StageCollectingDetails},
}

// CanTransition reports whether the edge from -> to is in the table.
func CanTransition(from, to Stage) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingRequest accumulates structured booking intent across turns. Fields
// are merged, never reset, so later messages refine earlier ones.
type BookingRequest struct {
	Day         time.Time     `json:"day,omitempty"`
	RawDay      string        `json:"raw_day,omitempty"`
	TimeOfDay   string        `json:"time_of_day,omitempty"`
	MeetingType string        `json:"meeting_type,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// Complete reports whether enough is known to query for availability: a
// resolved day is the one hard requirement.
func (r BookingRequest) Complete() bool {
	return !r.Day.IsZero()
}

// Merge folds a later extraction into the request without clobbering fields
// the user already provided.
func (r *BookingRequest) Merge(ex Extraction) {
	if !ex.Day.IsZero() {
		r.Day = ex.Day
		r.RawDay = ex.RawDay
	}
	if ex.TimeOfDay != "" {
		r.TimeOfDay = ex.TimeOfDay
	}
	if ex.MeetingType != "" {
		r.MeetingType = ex.MeetingType
	}
	if ex.Duration > 0 {
		r.Duration = ex.Duration
	}
}

// Title builds the calendar event title for a confirmed slot.
func (r BookingRequest) Title(slot calendar.Slot) string {
	meetingType := r.MeetingType
	if meetingType == "" {
		meetingType = "meeting"
	}
	return fmt.Sprintf("%s - %s", upperFirst(meetingType), slot.Display)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// Session is the server-side state of one user's conversation. Owned by the
// session store, mutated only by the orchestrator.
type Session struct {
	ID           string          `json:"id"`
	Stage        Stage           `json:"stage"`
	Request      BookingRequest  `json:"request"`
	OfferedSlots []calendar.Slot `json:"offered_slots,omitempty"`
	History      []ChatMessage   `json:"history,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewSession creates a session at the greeting stage.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Stage:     StageGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the session to the next stage, rejecting edges that are not
// in the transition table.
func (s *Session) Advance(next Stage) error {
	if s.Stage == next {
		return nil
	}
	if !CanTransition(s.Stage, next) {
		return fmt.Errorf("conversation: illegal stage transition %s -> %s", s.Stage, next)
	}
	s.Stage = next
	return nil
}

// AppendTurn records one transcript entry.
func (s *Session) AppendTurn(role, content string) {
	s.History = append(s.History, ChatMessage{Role: role, Content: content})
}

// ClearOffers invalidates any slots currently on offer.
func (s *Session) ClearOffers() {
	s.OfferedSlots = nil
}
