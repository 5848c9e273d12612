package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"calagent/pkg/logging"
)

// Intent is the extractor's judgment of what the user wants.
type Intent string

const (
	IntentBookAppointment   Intent = "book_appointment"
	IntentCheckAvailability Intent = "check_availability"
	IntentGeneral           Intent = "general_conversation"
)

// Extraction is the structured reading of one user message, merged into the
// session's booking request by the orchestrator. Zero values mean "not
// inferable from this message".
type Extraction struct {
	Intent      Intent
	Day         time.Time
	RawDay      string
	TimeOfDay   string
	MeetingType string
	Duration    time.Duration
	HasTimeInfo bool
}

// extractorPayload is the JSON shape the model is asked to return.
type extractorPayload struct {
	Intent          string `json:"intent"`
	Day             string `json:"day,omitempty"`
	Time            string `json:"time,omitempty"`
	Type            string `json:"type,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	HasTimeInfo     bool   `json:"has_time_info"`
}

const extractorSystemPrompt = `You are the intent classifier for a calendar booking assistant.
Given the conversation and the user's latest message, return ONLY a JSON object:
{
  "intent": "book_appointment" | "check_availability" | "general_conversation",
  "day": "<day mentioned: today, tomorrow, Monday, next week, ...>",
  "time": "<time mentioned: 2 PM, afternoon, morning, 3-5 pm, ...>",
  "type": "<meeting type: call, meeting, appointment, interview, ...>",
  "duration_minutes": <number, omit when not mentioned>,
  "has_time_info": <true when the message carries any scheduling information>
}
Examples:
"Schedule a call for tomorrow afternoon" -> {"intent":"book_appointment","day":"tomorrow","time":"afternoon","type":"call","has_time_info":true}
"Do you have any free time Friday?" -> {"intent":"check_availability","day":"Friday","has_time_info":true}
"Just saying hi" -> {"intent":"general_conversation","has_time_info":false}
Omit fields you cannot infer. Return ONLY valid JSON, no prose, no code fences.`

// maxHistoryTurns bounds how much transcript is replayed to the model.
const maxHistoryTurns = 10

// Extractor turns free-form user messages into structured booking fields via
// an LLM, with a deterministic regex fallback when the model's JSON cannot be
// parsed.
type Extractor struct {
	llm    LLMClient
	model  string
	now    func() time.Time
	logger *logging.Logger
}

// NewExtractor creates an extractor. The clock anchors relative-date
// resolution ("tomorrow", "next Friday"); a nil clock defaults to time.Now.
func NewExtractor(llm LLMClient, model string, clock func() time.Time, logger *logging.Logger) *Extractor {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: llm, model: model, now: clock, logger: logger}
}

// Extract classifies the message and pulls out any booking fields. It returns
// ErrExtractionFailure (wrapped) only when every provider call failed;
// unparseable model output degrades to regex extraction instead.
func (e *Extractor) Extract(ctx context.Context, history []ChatMessage, message string) (Extraction, error) {
	messages := make([]ChatMessage, 0, maxHistoryTurns+1)
	if n := len(history); n > maxHistoryTurns {
		history = history[n-maxHistoryTurns:]
	}
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: message})

	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.model,
		System:      extractorSystemPrompt,
		Messages:    messages,
		MaxTokens:   256,
		Temperature: 0,
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrExtractionFailure, err)
	}

	payload, err := parseExtractorJSON(resp.Text)
	if err != nil {
		e.logger.Warn("extractor: model returned unparseable JSON, using regex fallback",
			"error", err.Error(),
		)
		return e.regexExtract(message), nil
	}

	return e.fromPayload(payload, message), nil
}

// parseExtractorJSON tolerates code fences and surrounding prose around the
// model's JSON object.
func parseExtractorJSON(text string) (extractorPayload, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return extractorPayload{}, fmt.Errorf("conversation: no JSON object in %q", text)
	}

	var payload extractorPayload
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err != nil {
		return extractorPayload{}, fmt.Errorf("conversation: malformed extractor JSON: %w", err)
	}
	return payload, nil
}

func (e *Extractor) fromPayload(p extractorPayload, message string) Extraction {
	ex := Extraction{
		Intent:      normalizeIntent(p.Intent),
		RawDay:      p.Day,
		TimeOfDay:   p.Time,
		MeetingType: strings.ToLower(strings.TrimSpace(p.Type)),
		HasTimeInfo: p.HasTimeInfo,
	}
	if p.DurationMinutes > 0 {
		ex.Duration = time.Duration(p.DurationMinutes) * time.Minute
	}
	if day, ok := ResolveDay(p.Day, e.now()); ok {
		ex.Day = day
		ex.HasTimeInfo = true
	} else if day, ok := ResolveDay(message, e.now()); ok {
		// The model sometimes drops the day even when the message names one.
		ex.Day = day
		ex.RawDay = message
		ex.HasTimeInfo = true
	}
	return ex
}

func normalizeIntent(raw string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentBookAppointment:
		return IntentBookAppointment
	case IntentCheckAvailability:
		return IntentCheckAvailability
	default:
		return IntentGeneral
	}
}

// ---------- deterministic regex fallback ----------

var (
	bookWordsRE    = regexp.MustCompile(`(?i)\b(schedule|book|meeting|call|appointment|interview)\b`)
	availWordsRE   = regexp.MustCompile(`(?i)\b(free|available|availability|open(ing)?s?)\b`)
	fallbackTimeRE = regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2})?\s*(?:am|pm))|(morning|afternoon|evening)|(noon|midnight)`)
	meetingTypeRE  = regexp.MustCompile(`(?i)\b(call|meeting|appointment|interview)\b`)
	durationRE     = regexp.MustCompile(`(?i)(\d+)\s*(hour|hr|minute|min)s?\b`)

	fallbackDayTexts = []string{
		"today", "tomorrow", "next week",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	}
)

// regexExtract is the no-LLM extraction path, used when the model's output
// cannot be parsed.
func (e *Extractor) regexExtract(message string) Extraction {
	lower := strings.ToLower(message)
	ex := Extraction{Intent: IntentGeneral}

	switch {
	case bookWordsRE.MatchString(lower):
		ex.Intent = IntentBookAppointment
	case availWordsRE.MatchString(lower):
		ex.Intent = IntentCheckAvailability
	}

	for _, day := range fallbackDayTexts {
		if strings.Contains(lower, day) {
			ex.RawDay = day
			ex.HasTimeInfo = true
			break
		}
	}
	if ex.RawDay != "" {
		if day, ok := ResolveDay(ex.RawDay, e.now()); ok {
			ex.Day = day
		}
	}

	if m := fallbackTimeRE.FindString(lower); m != "" {
		ex.TimeOfDay = m
		ex.HasTimeInfo = true
	}

	if m := meetingTypeRE.FindString(lower); m != "" {
		ex.MeetingType = strings.ToLower(m)
	}

	if m := durationRE.FindStringSubmatch(lower); len(m) == 3 {
		n := atoi(m[1])
		if strings.HasPrefix(m[2], "hour") || strings.HasPrefix(m[2], "hr") {
			ex.Duration = time.Duration(n) * time.Hour
		} else {
			ex.Duration = time.Duration(n) * time.Minute
		}
	}

	return ex
}
