package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type wireCalendarList struct {
	Items []wireCalendarEntry `json:"items"`
}

type wireCalendarEntry struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	Primary    bool   `json:"primary"`
	AccessRole string `json:"accessRole"`
}

type wireEventList struct {
	Items []wireEvent `json:"items"`
}

type wireEvent struct {
	ID          string         `json:"id,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Start       *wireEventTime `json:"start,omitempty"`
	End         *wireEventTime `json:"end,omitempty"`
}

type wireEventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

func (t *wireEventTime) value() string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

func (s *Service) ListCalendars(ctx context.Context, conn *Connection) ([]CalendarView, error) {
	client, err := s.client(ctx, conn)
	if err != nil {
		return nil, err
	}

	var list wireCalendarList
	if err := s.doJSON(ctx, client, http.MethodGet, calendarBaseURL+"/users/me/calendarList", nil, &list); err != nil {
		return nil, err
	}

	calendars := make([]CalendarView, 0, len(list.Items))
	for _, entry := range list.Items {
		id := entry.ID
		if entry.Primary {
			id = "primary"
		}
		calendars = append(calendars, CalendarView{
			ID:         id,
			Name:       entry.Summary,
			Primary:    entry.Primary,
			AccessRole: entry.AccessRole,
		})
	}
	return calendars, nil
}

func (s *Service) ListEvents(ctx context.Context, conn *Connection, calendarID string, start, end time.Time) ([]EventView, error) {
	client, err := s.client(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("timeMin", start.Format(time.RFC3339))
	query.Set("timeMax", end.Format(time.RFC3339))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", calendarBaseURL, url.PathEscape(calendarID), query.Encode())

	var list wireEventList
	if err := s.doJSON(ctx, client, http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, err
	}

	events := make([]EventView, 0, len(list.Items))
	for _, item := range list.Items {
		if isAutoGeneratedTaskEvent(item) {
			continue
		}
		events = append(events, mapEvent(item, calendarID))
	}
	return events, nil
}

func (s *Service) CreateEvent(ctx context.Context, conn *Connection, calendarID string, draft EventDraft) (EventView, error) {
	client, err := s.client(ctx, conn)
	if err != nil {
		return EventView{}, err
	}

	body := wireEvent{
		Summary:     draft.Summary,
		Description: draft.Description,
		Location:    draft.Location,
		Start:       s.eventTime(draft.Start),
		End:         s.eventTime(draft.End),
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", calendarBaseURL, url.PathEscape(calendarID))

	var created wireEvent
	if err := s.doJSON(ctx, client, http.MethodPost, endpoint, body, &created); err != nil {
		return EventView{}, err
	}
	return mapEvent(created, calendarID), nil
}

// UpdateEvent reads the event, applies the non-empty patch fields, and
// writes the merged record back.
func (s *Service) UpdateEvent(ctx context.Context, conn *Connection, calendarID, eventID string, patch EventPatch) (EventView, error) {
	client, err := s.client(ctx, conn)
	if err != nil {
		return EventView{}, err
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", calendarBaseURL, url.PathEscape(calendarID), url.PathEscape(eventID))

	var existing wireEvent
	if err := s.doJSON(ctx, client, http.MethodGet, endpoint, nil, &existing); err != nil {
		return EventView{}, err
	}

	if patch.Summary != "" {
		existing.Summary = patch.Summary
	}
	if patch.Description != "" {
		existing.Description = patch.Description
	}
	if patch.Location != "" {
		existing.Location = patch.Location
	}
	if !patch.Start.IsZero() {
		existing.Start = s.eventTime(patch.Start)
	}
	if !patch.End.IsZero() {
		existing.End = s.eventTime(patch.End)
	}

	var updated wireEvent
	if err := s.doJSON(ctx, client, http.MethodPut, endpoint, existing, &updated); err != nil {
		return EventView{}, err
	}
	return mapEvent(updated, calendarID), nil
}

func (s *Service) eventTime(t time.Time) *wireEventTime {
	return &wireEventTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: s.loc.String(),
	}
}

func mapEvent(event wireEvent, calendarID string) EventView {
	return EventView{
		ID:          event.ID,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start:       event.Start.value(),
		End:         event.End.value(),
		CalendarID:  calendarID,
	}
}

// Google mirrors tasks with due dates into the calendar as synthetic
// events; those are already surfaced through the task tools.
func isAutoGeneratedTaskEvent(event wireEvent) bool {
	return strings.Contains(event.Description, "https://tasks.google.com/task")
}
