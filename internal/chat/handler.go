package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"calagent/internal/calendar"
	"calagent/internal/conversation"
	"calagent/internal/observability/metrics"
	"calagent/pkg/logging"
)

// Orchestrator is the handler's view of the dialogue engine.
type Orchestrator interface {
	ProcessMessage(ctx context.Context, sessionID, text string) (*conversation.Reply, error)
	ConfirmBooking(ctx context.Context, sessionID string, slotIndex int) (*conversation.BookingResult, error)
}

// Handler exposes the chat booking flow over HTTP and serves the demo client.
type Handler struct {
	orchestrator Orchestrator
	sessions     conversation.Store
	metrics      *metrics.ChatMetrics
	logger       *logging.Logger
	now          func() time.Time

	widgetJS  []byte
	indexHTML []byte
}

// NewHandler creates the chat HTTP handler.
func NewHandler(orch Orchestrator, sessions conversation.Store, m *metrics.ChatMetrics, widgetJS, indexHTML []byte, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		orchestrator: orch,
		sessions:     sessions,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
		widgetJS:     widgetJS,
		indexHTML:    indexHTML,
	}
}

// ChatRequest is what the widget posts for each user turn.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// SlotPayload is one offered time, shaped for rendering as a button.
type SlotPayload struct {
	Number  int    `json:"number"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Display string `json:"display"`
}

// ChatResponse is the agent's turn.
type ChatResponse struct {
	SessionID      string        `json:"session_id"`
	Response       string        `json:"response"`
	Intent         string        `json:"intent,omitempty"`
	AvailableSlots []SlotPayload `json:"available_slots,omitempty"`
}

// ConfirmRequest books an offered slot by its 1-based number.
type ConfirmRequest struct {
	SessionID  string `json:"session_id"`
	SlotNumber int    `json:"slot_number"`
}

// ConfirmResponse reports the booking outcome.
type ConfirmResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	EventID  string `json:"event_id,omitempty"`
	HTMLLink string `json:"html_link,omitempty"`
	Start    string `json:"start,omitempty"`
}

// HistoryMessage is one transcript entry.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleChat processes one user message and returns the agent's reply.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	started := h.now()
	reply, err := h.orchestrator.ProcessMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("chat: turn failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	h.metrics.ObserveTurnLatency(h.now().Sub(started).Seconds())

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID:      req.SessionID,
		Response:       reply.Text,
		Intent:         string(reply.Intent),
		AvailableSlots: slotPayloads(reply.Slots),
	})
}

// HandleConfirmBooking books an offered slot directly, for clients that use
// buttons instead of typing the number back.
func (h *Handler) HandleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := h.orchestrator.ConfirmBooking(r.Context(), req.SessionID, req.SlotNumber-1)
	if err != nil {
		if errors.Is(err, conversation.ErrInvalidSlotSelection) {
			// A stale or out-of-range pick is a conversational miss, not an
			// HTTP error: the widget shows the message and keeps the session.
			writeJSON(w, http.StatusOK, ConfirmResponse{
				Success: false,
				Message: "That time is no longer on offer. Ask me for availability again.",
			})
			return
		}
		h.logger.Error("chat: confirm failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to confirm booking")
		return
	}

	resp := ConfirmResponse{Success: result.Success, Message: result.Message}
	if result.Booking != nil {
		resp.EventID = result.Booking.EventID
		resp.HTMLLink = result.Booking.HTMLLink
		resp.Start = result.Booking.Start.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory returns the transcript for a session. The lookup is
// read-only: probing an unknown id yields an empty transcript and never
// materializes a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session parameter required")
		return
	}

	history := make([]HistoryMessage, 0)
	sess, err := h.sessions.Get(r.Context(), sessionID)
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		// empty transcript
	case err != nil:
		h.logger.Error("chat: failed to load history", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	default:
		for _, m := range sess.History {
			history = append(history, HistoryMessage{Role: m.Role, Text: m.Content})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   history,
	})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleWidgetJS serves the embeddable widget JavaScript.
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.widgetJS)
}

// HandleIndex serves the one-page demo client.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(h.indexHTML)
}

func slotPayloads(slots []calendar.Slot) []SlotPayload {
	if len(slots) == 0 {
		return nil
	}
	out := make([]SlotPayload, 0, len(slots))
	for i, s := range slots {
		out = append(out, SlotPayload{
			Number:  i + 1,
			Start:   s.Start.Format(time.RFC3339),
			End:     s.End.Format(time.RFC3339),
			Display: s.Display,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
