package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calagent/internal/calendar"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	tests := []struct {
		from, to Stage
		allowed  bool
	}{
		{StageGreeting, StageCollectingDetails, true},
		{StageGreeting, StageOfferingSlots, true},
		{StageGreeting, StageAwaitingConfirmation, false},
		{StageGreeting, StageDone, true},
		{StageCollectingDetails, StageOfferingSlots, true},
		{StageCollectingDetails, StageDone, true},
		{StageOfferingSlots, StageDone, true},
		{StageOfferingSlots, StageCollectingDetails, true},
		{StageOfferingSlots, StageAwaitingConfirmation, true},
		{StageAwaitingConfirmation, StageDone, true},
		{StageAwaitingConfirmation, StageCollectingDetails, true},
		{StageDone, StageCollectingDetails, true},
		{StageDone, StageOfferingSlots, false},
		{StageDone, StageGreeting, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to),
			"transition %s -> %s", tt.from, tt.to)
	}
}

func TestSessionAdvanceRejectsIllegalEdge(t *testing.T) {
	sess := NewSession("s1", anchor)
	require.Equal(t, StageGreeting, sess.Stage)

	err := sess.Advance(StageAwaitingConfirmation)
	require.Error(t, err)
	assert.Equal(t, StageGreeting, sess.Stage, "stage must not change on rejected transition")

	require.NoError(t, sess.Advance(StageCollectingDetails))
	assert.Equal(t, StageCollectingDetails, sess.Stage)
}

func TestSessionAdvanceSelfLoopIsNoop(t *testing.T) {
	sess := NewSession("s1", anchor)
	require.NoError(t, sess.Advance(StageGreeting))
	assert.Equal(t, StageGreeting, sess.Stage)
}

func TestBookingRequestMergeRefines(t *testing.T) {
	var req BookingRequest
	assert.False(t, req.Complete())

	req.Merge(Extraction{Day: day(16), RawDay: "next week", MeetingType: "meeting"})
	require.True(t, req.Complete())
	assert.Equal(t, day(16), req.Day)

	// "mornings only" on a later turn must refine, not reset.
	req.Merge(Extraction{TimeOfDay: "morning"})
	assert.Equal(t, day(16), req.Day, "day must survive a partial merge")
	assert.Equal(t, "morning", req.TimeOfDay)
	assert.Equal(t, "meeting", req.MeetingType)
}

func TestBookingRequestTitle(t *testing.T) {
	slot := calendar.Slot{Display: "2:00 PM"}

	req := BookingRequest{MeetingType: "call"}
	assert.Equal(t, "Call - 2:00 PM", req.Title(slot))

	var untyped BookingRequest
	assert.Equal(t, "Meeting - 2:00 PM", untyped.Title(slot))
}

func TestSessionAppendTurnAndClearOffers(t *testing.T) {
	sess := NewSession("s1", anchor)
	sess.AppendTurn(ChatRoleUser, "hello")
	sess.AppendTurn(ChatRoleAssistant, "hi there")
	require.Len(t, sess.History, 2)
	assert.Equal(t, ChatRoleUser, sess.History[0].Role)

	sess.OfferedSlots = []calendar.Slot{{Display: "9:00 AM", Start: anchor, End: anchor.Add(time.Hour)}}
	sess.ClearOffers()
	assert.Empty(t, sess.OfferedSlots)
}
