package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calagent/pkg/logging"
)

// slotStep is the interval at which candidate slots are generated when
// expanding free gaps between events.
const slotStep = 30 * time.Minute

// maxGoogleSlots caps how many slots a single availability query returns.
const maxGoogleSlots = 5

// GoogleClient reads availability from and creates events on a Google
// Calendar via the Calendar v3 API.
type GoogleClient struct {
	svc        *gcal.Service
	calendarID string
	now        func() time.Time
	logger     *logging.Logger
}

// NewGoogleClient builds a calendar client from a service-account or OAuth
// credentials file. calendarID is usually "primary".
func NewGoogleClient(ctx context.Context, credentialsPath, calendarID string, logger *logging.Logger) (*GoogleClient, error) {
	if strings.TrimSpace(credentialsPath) == "" {
		return nil, fmt.Errorf("calendar: credentials path is required")
	}
	if strings.TrimSpace(calendarID) == "" {
		calendarID = "primary"
	}
	if logger == nil {
		logger = logging.Default()
	}

	svc, err := gcal.NewService(ctx, option.WithCredentialsFile(credentialsPath), option.WithScopes(gcal.CalendarScope))
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create google calendar service: %w", err)
	}

	return &GoogleClient{
		svc:        svc,
		calendarID: calendarID,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// ListFreeSlots fetches the window's events and expands the gaps between them
// into discrete bookable slots of the window's duration.
func (c *GoogleClient) ListFreeSlots(ctx context.Context, window Window) ([]Slot, error) {
	duration := window.Duration
	if duration <= 0 {
		duration = time.Hour
	}

	events, err := c.svc.Events.List(c.calendarID).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to list events: %w", err)
	}

	type interval struct{ start, end time.Time }
	busy := make([]interval, 0, len(events.Items))
	for _, ev := range events.Items {
		start, sErr := parseEventTime(ev.Start)
		end, eErr := parseEventTime(ev.End)
		if sErr != nil || eErr != nil {
			continue
		}
		busy = append(busy, interval{start: start, end: end})
	}

	now := c.now()
	var slots []Slot
	for cursor := window.Start; !cursor.Add(duration).After(window.End); cursor = cursor.Add(slotStep) {
		slotEnd := cursor.Add(duration)
		if !cursor.After(now) {
			continue
		}
		conflict := false
		for _, b := range busy {
			if cursor.Before(b.end) && slotEnd.After(b.start) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		slots = append(slots, Slot{Start: cursor, End: slotEnd, Display: DisplayTime(cursor)})
		if len(slots) == maxGoogleSlots {
			break
		}
	}

	c.logger.Debug("google calendar: listed free slots",
		"calendar_id", c.calendarID,
		"busy_events", len(busy),
		"slots", len(slots),
	)
	return slots, nil
}

// Book inserts an event covering the slot. Not idempotent.
func (c *GoogleClient) Book(ctx context.Context, slot Slot, title string) (*Booking, error) {
	event := &gcal.Event{
		Summary:     title,
		Description: "Booked via calendar agent",
		Start: &gcal.EventDateTime{
			DateTime: slot.Start.Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: slot.End.Format(time.RFC3339),
			TimeZone: "UTC",
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create event: %w", err)
	}

	c.logger.Info("google calendar: event created",
		"event_id", created.Id,
		"title", title,
		"start", slot.Start,
	)
	return &Booking{
		EventID:   created.Id,
		Title:     title,
		Start:     slot.Start,
		End:       slot.End,
		HTMLLink:  created.HtmlLink,
		CreatedAt: c.now(),
	}, nil
}

// parseEventTime handles both timed (dateTime) and all-day (date) events.
func parseEventTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, fmt.Errorf("calendar: event has no time")
	}
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	return time.Parse("2006-01-02", edt.Date)
}
