package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"calagent/internal/calendar"
	"calagent/internal/chat"
	"calagent/internal/conversation"
	"calagent/pkg/logging"
)

// scriptedExtractor avoids a live LLM in router tests.
type scriptedExtractor struct {
	extraction conversation.Extraction
}

func (s *scriptedExtractor) Extract(_ context.Context, _ []conversation.ChatMessage, _ string) (conversation.Extraction, error) {
	return s.extraction, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.New("error")
	clock := func() time.Time { return time.Date(2025, 6, 11, 10, 30, 0, 0, time.UTC) }
	store := conversation.NewMemoryStore(clock)
	extractor := &scriptedExtractor{extraction: conversation.Extraction{
		Intent:      conversation.IntentBookAppointment,
		Day:         time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		RawDay:      "tomorrow",
		TimeOfDay:   "afternoon",
		MeetingType: "call",
		HasTimeInfo: true,
	}}
	orch := conversation.NewOrchestrator(conversation.OrchestratorParams{
		Store:     store,
		Extractor: extractor,
		Calendar:  calendar.NewMockClient(clock, logger),
		Logger:    logger,
		Clock:     clock,
	})
	handler := chat.NewHandler(orch, store, nil, []byte("// widget"), []byte("<!doctype html>"), logger)

	return New(&Config{ChatHandler: handler})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterChatEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body := `{"session_id":"sess1","message":"book a call tomorrow afternoon"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var resp chat.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode chat response: %v", err)
	}
	if resp.SessionID != "sess1" {
		t.Errorf("expected session sess1, got %q", resp.SessionID)
	}
	if len(resp.AvailableSlots) == 0 {
		t.Error("expected offered slots in chat response")
	}
}

func TestRouterConfirmBookingEndpoint(t *testing.T) {
	router := newTestRouter(t)

	chatBody := `{"session_id":"sess1","message":"book a call tomorrow afternoon"}`
	chatReq := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(chatBody))
	chatReq.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), chatReq)

	body := `{"session_id":"sess1","slot_number":1}`
	req := httptest.NewRequest(http.MethodPost, "/confirm-booking", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var resp chat.ConfirmResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode confirm response: %v", err)
	}
	if !resp.Success {
		t.Errorf("expected booking success, got message %q", resp.Message)
	}
	if resp.EventID == "" {
		t.Error("expected event id in confirm response")
	}
}

func TestRouterHistoryEndpoint(t *testing.T) {
	router := newTestRouter(t)

	chatBody := `{"session_id":"sess1","message":"book a call tomorrow afternoon"}`
	chatReq := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(chatBody))
	chatReq.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), chatReq)

	req := httptest.NewRequest(http.MethodGet, "/chat/history?session=sess1", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp struct {
		Messages []chat.HistoryMessage `json:"messages"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode history response: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Errorf("expected 2 transcript entries, got %d", len(resp.Messages))
	}
}

func TestRouterServesWidgetAndIndex(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/chat/widget.js", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("widget: expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/javascript" {
		t.Errorf("widget: unexpected content type %q", ct)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("index: expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("index: unexpected content type %q", ct)
	}
}
