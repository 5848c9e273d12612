package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"calagent/internal/calendar"
	"calagent/internal/observability/metrics"
	"calagent/pkg/logging"
)

// Canned replies. All conversational failures resolve to one of these rather
// than an HTTP error.
const (
	replyGreeting       = "Hi! I'm your calendar assistant. What would you like to schedule today?"
	replyHelp           = "I can help you schedule meetings, check availability, and book appointments. What would you like to schedule?"
	replyNudge          = "I'd be happy to help you schedule something! Try saying 'I want to schedule a call for tomorrow afternoon' or 'Do you have any free time this Friday?'"
	replyClarify        = "I'd love to help you schedule that! Could you tell me when you'd like to meet? For example: 'tomorrow at 2 PM' or 'Friday morning'."
	replyCannotParse    = "Sorry, I'm having trouble understanding right now. Could you try rephrasing that?"
	replyCalendarDown   = "Sorry, I couldn't check the calendar just now. Please try again in a moment."
	replyBookingFailed  = "Sorry, I couldn't book that time. Please try again."
	replyAlreadyBooked  = "Your booking is confirmed. Is there anything else you'd like to schedule?"
	replySelectFromList = "Which of the offered times works for you? Just reply with the number."
)

// IntentExtractor is the orchestrator's view of the LLM-backed extractor.
type IntentExtractor interface {
	Extract(ctx context.Context, history []ChatMessage, message string) (Extraction, error)
}

// Reply is one agent turn: text plus any slots to render as buttons.
type Reply struct {
	Text   string
	Slots  []calendar.Slot
	Intent Intent
}

// BookingResult is the outcome of an explicit slot confirmation.
type BookingResult struct {
	Success bool
	Message string
	Booking *calendar.Booking
}

// Orchestrator drives the booking conversation: it merges extractor output
// into the session's request, queries the calendar, offers slots, and books
// the chosen one.
type Orchestrator struct {
	store     Store
	extractor IntentExtractor
	calendar  calendar.Client
	metrics   *metrics.ChatMetrics
	logger    *logging.Logger
	now       func() time.Time

	slotDuration      time.Duration
	workingHoursStart int
	workingHoursEnd   int
	maxOfferedSlots   int
}

// OrchestratorParams collects the orchestrator's dependencies and tuning.
type OrchestratorParams struct {
	Store     Store
	Extractor IntentExtractor
	Calendar  calendar.Client
	Metrics   *metrics.ChatMetrics
	Logger    *logging.Logger
	Clock     func() time.Time

	SlotDuration      time.Duration
	WorkingHoursStart int
	WorkingHoursEnd   int
	MaxOfferedSlots   int
}

// NewOrchestrator wires the dialogue orchestrator. Store, Extractor and
// Calendar are required; the rest default sensibly.
func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	if p.Store == nil {
		panic("conversation: orchestrator requires a session store")
	}
	if p.Extractor == nil {
		panic("conversation: orchestrator requires an extractor")
	}
	if p.Calendar == nil {
		panic("conversation: orchestrator requires a calendar client")
	}
	if p.Logger == nil {
		p.Logger = logging.Default()
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.SlotDuration <= 0 {
		p.SlotDuration = time.Hour
	}
	if p.WorkingHoursStart == 0 && p.WorkingHoursEnd == 0 {
		p.WorkingHoursStart, p.WorkingHoursEnd = 9, 17
	}
	if p.MaxOfferedSlots <= 0 {
		p.MaxOfferedSlots = 3
	}
	return &Orchestrator{
		store:             p.Store,
		extractor:         p.Extractor,
		calendar:          p.Calendar,
		metrics:           p.Metrics,
		logger:            p.Logger,
		now:               p.Clock,
		slotDuration:      p.SlotDuration,
		workingHoursStart: p.WorkingHoursStart,
		workingHoursEnd:   p.WorkingHoursEnd,
		maxOfferedSlots:   p.MaxOfferedSlots,
	}
}

// ProcessMessage handles one user turn. The returned error is reserved for
// infrastructure failures (session store unreachable); conversational
// failures come back as apologetic replies with the stage unchanged.
func (o *Orchestrator) ProcessMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	sess, err := o.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reply := o.advance(ctx, sess, text)

	sess.AppendTurn(ChatRoleUser, text)
	sess.AppendTurn(ChatRoleAssistant, reply.Text)
	if err := o.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	o.metrics.ObserveMessage(string(reply.Intent), string(sess.Stage))
	o.logger.Info("chat turn processed",
		"session_id", sess.ID,
		"stage", sess.Stage,
		"intent", reply.Intent,
		"offered_slots", len(sess.OfferedSlots),
	)
	return reply, nil
}

// advance computes the reply and mutates the session's stage, request and
// offered slots. It never returns an error; failures map to replies.
func (o *Orchestrator) advance(ctx context.Context, sess *Session, text string) *Reply {
	// A slot choice short-circuits extraction while offers are live.
	if sess.Stage == StageOfferingSlots || sess.Stage == StageAwaitingConfirmation {
		switch idx, kind := parseSlotSelection(text, sess.OfferedSlots); kind {
		case selectionValid:
			return o.bookOffered(ctx, sess, idx)
		case selectionOutOfRange:
			return &Reply{
				Text:   fmt.Sprintf("Please pick a number between 1 and %d.", len(sess.OfferedSlots)),
				Slots:  sess.OfferedSlots,
				Intent: IntentBookAppointment,
			}
		}
	}

	ex, err := o.extractor.Extract(ctx, sess.History, text)
	if err != nil {
		o.logger.Error("extraction failed", "session_id", sess.ID, "error", err)
		return &Reply{Text: replyCannotParse, Intent: IntentGeneral}
	}
	sess.Request.Merge(ex)

	switch {
	case sess.Stage == StageDone && !ex.HasTimeInfo:
		return &Reply{Text: replyAlreadyBooked, Intent: ex.Intent}
	case sess.Stage == StageDone && ex.HasTimeInfo:
		// A fresh request after a completed booking starts a new cycle.
		sess.Request = BookingRequest{}
		sess.Request.Merge(ex)
		sess.ClearOffers()
		_ = sess.Advance(StageCollectingDetails)
	}

	switch ex.Intent {
	case IntentBookAppointment, IntentCheckAvailability:
		return o.handleBookingIntent(ctx, sess, ex)
	default:
		if ex.HasTimeInfo && sess.Request.Complete() {
			// "Mornings only" after "book a meeting next week" refines the
			// request even when the classifier shrugs.
			return o.handleBookingIntent(ctx, sess, ex)
		}
		return o.handleSmallTalk(sess, text)
	}
}

func (o *Orchestrator) handleBookingIntent(ctx context.Context, sess *Session, ex Extraction) *Reply {
	if !sess.Request.Complete() {
		_ = sess.Advance(StageCollectingDetails)
		return &Reply{Text: replyClarify, Intent: ex.Intent}
	}

	// An explicit clock time books immediately; the offer flow is the
	// fallback when that booking cannot be made.
	var prefix string
	if ex.Intent == IntentBookAppointment {
		if hour, minute, ok := ResolveClockTime(sess.Request.TimeOfDay); ok {
			reply, failText := o.bookDirect(ctx, sess, hour, minute)
			if reply != nil {
				return reply
			}
			prefix = failText + " "
		}
	}

	window := ResolveWindow(sess.Request.Day, sess.Request.TimeOfDay, o.requestDuration(sess), o.workingHoursStart, o.workingHoursEnd)
	slots, err := o.calendar.ListFreeSlots(ctx, window)
	if err != nil {
		o.logger.Error("availability query failed",
			"session_id", sess.ID,
			"error", fmt.Errorf("%w: %v", ErrCalendarQuery, err),
		)
		return &Reply{Text: replyCalendarDown, Intent: ex.Intent}
	}
	if len(slots) == 0 {
		_ = sess.Advance(StageCollectingDetails)
		sess.ClearOffers()
		return &Reply{
			Text:   prefix + fmt.Sprintf("I couldn't find any available times for %s. Would you like to try a different day?", calendar.DisplayDate(window.Start)),
			Intent: ex.Intent,
		}
	}

	if len(slots) > o.maxOfferedSlots {
		slots = slots[:o.maxOfferedSlots]
	}
	sess.OfferedSlots = slots
	_ = sess.Advance(StageOfferingSlots)

	return &Reply{
		Text:   prefix + o.offerText(sess, ex.Intent),
		Slots:  slots,
		Intent: ex.Intent,
	}
}

// bookDirect books the exact requested time without offering alternatives.
// On failure it returns a nil reply plus the text to prepend to the offer
// flow the caller falls back to.
func (o *Orchestrator) bookDirect(ctx context.Context, sess *Session, hour, minute int) (*Reply, string) {
	day := sess.Request.Day
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	if !start.After(o.now()) {
		return nil, fmt.Sprintf("Sorry, %s is in the past.", calendar.DisplayTime(start))
	}

	slot := calendar.Slot{
		Start:   start,
		End:     start.Add(o.requestDuration(sess)),
		Display: calendar.DisplayTime(start),
	}
	booking, err := o.calendar.Book(ctx, slot, sess.Request.Title(slot))
	if err != nil {
		o.metrics.ObserveBooking("failure")
		o.logger.Error("direct booking failed",
			"session_id", sess.ID,
			"error", fmt.Errorf("%w: %v", ErrCalendarBooking, err),
		)
		return nil, "I couldn't book that exact time."
	}

	_ = sess.Advance(StageDone)
	sess.ClearOffers()
	o.metrics.ObserveBooking("success")

	return &Reply{
		Text:   fmt.Sprintf("Perfect! You're all set — your %s is booked for %s.", bookingNoun(sess), calendar.DisplayDate(booking.Start)),
		Intent: IntentBookAppointment,
	}, ""
}

func (o *Orchestrator) offerText(sess *Session, intent Intent) string {
	var b strings.Builder
	meetingType := sess.Request.MeetingType
	if meetingType == "" {
		meetingType = "meeting"
	}
	if intent == IntentCheckAvailability {
		fmt.Fprintf(&b, "Here are your free time slots for %s:\n\n", sess.Request.Day.Format("Monday, January 2"))
	} else {
		fmt.Fprintf(&b, "I found some available times for your %s:\n\n", meetingType)
	}
	for i, slot := range sess.OfferedSlots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, slot.Display)
	}
	b.WriteString("\nWhich time works best for you? Just reply with the number.")
	return b.String()
}

func (o *Orchestrator) handleSmallTalk(sess *Session, text string) *Reply {
	// Stale offers with no selection in sight: nudge toward the list once,
	// then keep waiting.
	if sess.Stage == StageOfferingSlots || sess.Stage == StageAwaitingConfirmation {
		_ = sess.Advance(StageAwaitingConfirmation)
		return &Reply{Text: replySelectFromList, Slots: sess.OfferedSlots, Intent: IntentGeneral}
	}

	if sess.Stage == StageGreeting {
		_ = sess.Advance(StageCollectingDetails)
	}

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "hi", "hello", "hey", "good morning", "good afternoon"):
		return &Reply{Text: replyGreeting, Intent: IntentGeneral}
	case containsAny(lower, "help", "what can you do", "how do"):
		return &Reply{Text: replyHelp, Intent: IntentGeneral}
	default:
		return &Reply{Text: replyNudge, Intent: IntentGeneral}
	}
}

// bookOffered books exactly one slot; the done stage gates re-booking.
func (o *Orchestrator) bookOffered(ctx context.Context, sess *Session, idx int) *Reply {
	slot := sess.OfferedSlots[idx]
	title := sess.Request.Title(slot)

	booking, err := o.calendar.Book(ctx, slot, title)
	if err != nil {
		o.metrics.ObserveBooking("failure")
		o.logger.Error("booking failed",
			"session_id", sess.ID,
			"error", fmt.Errorf("%w: %v", ErrCalendarBooking, err),
		)
		return &Reply{Text: replyBookingFailed, Slots: sess.OfferedSlots, Intent: IntentBookAppointment}
	}

	_ = sess.Advance(StageDone)
	sess.ClearOffers()
	o.metrics.ObserveBooking("success")

	return &Reply{
		Text:   fmt.Sprintf("Perfect! You're all set — your %s is booked for %s.", bookingNoun(sess), calendar.DisplayDate(booking.Start)),
		Intent: IntentBookAppointment,
	}
}

// ConfirmBooking books the slot at the given 0-based index, for clients that
// confirm via the dedicated endpoint instead of a chat reply.
func (o *Orchestrator) ConfirmBooking(ctx context.Context, sessionID string, slotIndex int) (*BookingResult, error) {
	sess, err := o.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(sess.OfferedSlots) == 0 {
		return nil, fmt.Errorf("%w: session %s has no offers pending", ErrInvalidSlotSelection, sessionID)
	}
	if slotIndex < 0 || slotIndex >= len(sess.OfferedSlots) {
		return nil, fmt.Errorf("%w: index %d of %d offered", ErrInvalidSlotSelection, slotIndex, len(sess.OfferedSlots))
	}

	slot := sess.OfferedSlots[slotIndex]
	booking, err := o.calendar.Book(ctx, slot, sess.Request.Title(slot))
	if err != nil {
		o.metrics.ObserveBooking("failure")
		o.logger.Error("booking confirmation failed", "session_id", sessionID, "error", err)
		return &BookingResult{Success: false, Message: replyBookingFailed}, nil
	}

	_ = sess.Advance(StageDone)
	sess.ClearOffers()
	if err := o.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	o.metrics.ObserveBooking("success")

	return &BookingResult{
		Success: true,
		Message: fmt.Sprintf("Booking confirmed for %s.", calendar.DisplayDate(booking.Start)),
		Booking: booking,
	}, nil
}

func (o *Orchestrator) requestDuration(sess *Session) time.Duration {
	if sess.Request.Duration > 0 {
		return sess.Request.Duration
	}
	return o.slotDuration
}

func bookingNoun(sess *Session) string {
	if sess.Request.MeetingType != "" {
		return sess.Request.MeetingType
	}
	return "meeting"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
