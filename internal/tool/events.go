package tool

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/timeutil"
	"github.com/harunnryd/koyomi/internal/visibility"
)

type listEventsTool struct {
	deps *Deps
}

func (t *listEventsTool) Name() string { return "list_events" }

func (t *listEventsTool) Description() string {
	return "List events across the user's visible calendars inside a date window."
}

func (t *listEventsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"start_date": map[string]interface{}{"type": "string"},
			"end_date":   map[string]interface{}{"type": "string"},
		},
		"required": []string{"start_date", "end_date"},
	}
}

func (t *listEventsTool) Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error) {
	if err := requireConnection(call); err != nil {
		return nil, err
	}

	var args struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	if args.StartDate == "" || args.EndDate == "" {
		return nil, koyomiErrors.InvalidInput("start_date and end_date are required")
	}

	loc := t.deps.location()
	start, err := timeutil.ParseLocal(args.StartDate, loc)
	if err != nil {
		return nil, err
	}
	endDay, err := timeutil.ParseLocal(args.EndDate, loc)
	if err != nil {
		return nil, err
	}
	end := timeutil.EndOfDay(endDay)

	calendars, err := t.deps.Visibility.VisibleCalendars(ctx, call.Conn, call.Session)
	if err != nil {
		calendars = nil
	}
	if len(calendars) == 0 {
		// Degraded view: assume the primary calendar exists even when
		// the calendar list cannot be fetched.
		calendars = []google.CalendarView{{
			ID:         "primary",
			Name:       "Primary calendar",
			Primary:    true,
			AccessRole: "owner",
		}}
	}

	var events []google.EventView
	for _, calendar := range calendars {
		calendarID := calendar.ID
		if calendarID == "" {
			calendarID = "primary"
		}
		readonly := calendar.Readonly || visibility.IsReadonlyAccess(calendar.AccessRole)

		calendarEvents, err := t.deps.Calendars.ListEvents(ctx, call.Conn, calendarID, start, end)
		if err != nil {
			continue
		}
		for _, event := range calendarEvents {
			event.CalendarID = calendarID
			event.Calendar = calendar.Name
			if event.Calendar == "" {
				event.Calendar = "Calendar"
			}
			event.Readonly = readonly || event.Readonly
			events = append(events, event)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return t.eventStart(events[i]) < t.eventStart(events[j])
	})

	return encodeResult(map[string]interface{}{
		"events": call.Aliases().MaskEvents(events, "primary"),
	})
}

func (t *listEventsTool) eventStart(event google.EventView) int64 {
	if event.Start == "" {
		return 0
	}
	parsed, err := timeutil.ParseLocal(event.Start, t.deps.location())
	if err != nil {
		return 0
	}
	return parsed.Unix()
}

type createEventTool struct {
	deps *Deps
}

func (t *createEventTool) Name() string { return "create_event" }

func (t *createEventTool) Description() string {
	return "Create an event on the primary calendar, from explicit datetimes or a date with optional times."
}

func (t *createEventTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"summary":        map[string]interface{}{"type": "string"},
			"start_datetime": map[string]interface{}{"type": "string"},
			"end_datetime":   map[string]interface{}{"type": "string"},
			"date":           map[string]interface{}{"type": "string"},
			"start_time":     map[string]interface{}{"type": "string"},
			"end_time":       map[string]interface{}{"type": "string"},
			"notes":          map[string]interface{}{"type": "string"},
			"location":       map[string]interface{}{"type": "string"},
		},
		"required": []string{"summary"},
	}
}

func (t *createEventTool) Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error) {
	if err := requireConnection(call); err != nil {
		return nil, err
	}

	var args struct {
		Summary       string `json:"summary"`
		Title         string `json:"title"`
		EventName     string `json:"name"`
		StartDatetime string `json:"start_datetime"`
		StartCamel    string `json:"startDateTime"`
		StartShort    string `json:"start"`
		EndDatetime   string `json:"end_datetime"`
		EndCamel      string `json:"endDateTime"`
		EndShort      string `json:"end"`
		Date          string `json:"date"`
		StartTime     string `json:"start_time"`
		EndTime       string `json:"end_time"`
		Notes         string `json:"notes"`
		Description   string `json:"description"`
		Location      string `json:"location"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}

	summary := firstNonEmpty(args.Summary, args.Title, args.EventName)
	if summary == "" {
		return nil, koyomiErrors.InvalidInput("event summary is required")
	}

	startRaw := firstNonEmpty(args.StartDatetime, args.StartCamel, args.StartShort)
	endRaw := firstNonEmpty(args.EndDatetime, args.EndCamel, args.EndShort)

	var start, end time.Time
	if startRaw != "" || endRaw != "" {
		var err error
		start, err = parseDatetimeField(startRaw, "start_datetime", t.deps.location())
		if err != nil {
			return nil, err
		}
		if endRaw != "" {
			end, err = parseDatetimeField(endRaw, "end_datetime", t.deps.location())
			if err != nil {
				return nil, err
			}
		} else {
			duration := t.deps.Window.Duration
			if duration <= 0 {
				duration = time.Hour
			}
			end = start.Add(duration)
		}
	} else {
		var err error
		start, end, err = t.deps.Window.ResolveEventWindow(args.Date, args.StartTime, args.EndTime)
		if err != nil {
			return nil, err
		}
	}

	created, err := t.deps.Calendars.CreateEvent(ctx, call.Conn, "primary", google.EventDraft{
		Summary:     summary,
		Description: firstNonEmpty(args.Notes, args.Description),
		Location:    args.Location,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return nil, err
	}
	return encodeResult(map[string]interface{}{
		"event": call.Aliases().MaskEvent(created, "primary"),
	})
}

type updateEventTool struct {
	deps *Deps
}

func (t *updateEventTool) Name() string { return "update_event" }

func (t *updateEventTool) Description() string {
	return "Update an event on a writable calendar."
}

func (t *updateEventTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"event_id":       map[string]interface{}{"type": "string"},
			"title":          map[string]interface{}{"type": "string"},
			"notes":          map[string]interface{}{"type": "string"},
			"location":       map[string]interface{}{"type": "string"},
			"start_datetime": map[string]interface{}{"type": "string"},
			"end_datetime":   map[string]interface{}{"type": "string"},
		},
		"required": []string{"event_id"},
	}
}

func (t *updateEventTool) Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error) {
	if err := requireConnection(call); err != nil {
		return nil, err
	}

	var args struct {
		EventID       string `json:"event_id"`
		Title         string `json:"title"`
		Notes         string `json:"notes"`
		Location      string `json:"location"`
		StartDatetime string `json:"start_datetime"`
		EndDatetime   string `json:"end_datetime"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	if args.EventID == "" {
		return nil, koyomiErrors.InvalidInput("event_id is required")
	}

	calendarID, eventID := call.Aliases().ResolveEvent(args.EventID, "primary")
	if call.Aliases().EventIsReadonly(args.EventID) {
		return nil, koyomiErrors.Readonly("events from shared calendars are view-only")
	}
	readonly, err := t.deps.Visibility.IsReadonly(ctx, call.Conn, call.Session, calendarID)
	if err != nil {
		return nil, err
	}
	if readonly {
		return nil, koyomiErrors.Readonly("events from shared calendars are view-only")
	}

	patch := google.EventPatch{
		Summary:     args.Title,
		Description: args.Notes,
		Location:    args.Location,
	}
	if args.StartDatetime != "" {
		patch.Start, err = parseDatetimeField(args.StartDatetime, "start_datetime", t.deps.location())
		if err != nil {
			return nil, err
		}
	}
	if args.EndDatetime != "" {
		patch.End, err = parseDatetimeField(args.EndDatetime, "end_datetime", t.deps.location())
		if err != nil {
			return nil, err
		}
	}

	updated, err := t.deps.Calendars.UpdateEvent(ctx, call.Conn, calendarID, eventID, patch)
	if err != nil {
		return nil, err
	}
	return encodeResult(map[string]interface{}{
		"event": call.Aliases().MaskEvent(updated, calendarID),
	})
}

func parseDatetimeField(raw, field string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, koyomiErrors.InvalidInput(field + " is required when using explicit datetimes")
	}
	parsed, err := timeutil.ParseLocal(raw, loc)
	if err != nil {
		return time.Time{}, koyomiErrors.InvalidInput("invalid " + field + " value")
	}
	return parsed, nil
}
