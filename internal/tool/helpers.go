package tool

import (
	"context"
	"encoding/json"
	"time"

	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/reminder"
	"github.com/harunnryd/koyomi/internal/timeutil"
	"github.com/harunnryd/koyomi/internal/visibility"
)

// Deps bundles the collaborators the builtin tools share.
type Deps struct {
	Tasks      google.TasksAPI
	Calendars  google.CalendarAPI
	Visibility *visibility.Service
	Reminders  *reminder.Service
	Window     timeutil.WindowDefaults
	Location   *time.Location
}

// RegisterBuiltins wires every builtin tool into the registry.
func RegisterBuiltins(registry *Registry, deps *Deps) {
	registry.Register(&listTaskListsTool{deps: deps})
	registry.Register(&listTasksTool{deps: deps})
	registry.Register(&createTaskTool{deps: deps})
	registry.Register(&updateTaskTool{deps: deps})
	registry.Register(&listEventsTool{deps: deps})
	registry.Register(&createEventTool{deps: deps})
	registry.Register(&updateEventTool{deps: deps})
	registry.Register(&scheduleTriggerReminderTool{deps: deps})
	registry.Register(&listTriggerRemindersTool{deps: deps})
}

func (d *Deps) location() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.UTC
}

func decodeArgs(input json.RawMessage, out interface{}) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, out); err != nil {
		return koyomiErrors.InvalidInput("malformed tool arguments")
	}
	return nil
}

func encodeResult(payload interface{}) (json.RawMessage, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, koyomiErrors.Internal("encode tool result")
	}
	return encoded, nil
}

func requireConnection(call *Call) error {
	if call.Conn == nil {
		return koyomiErrors.NotConnected("Google is not connected")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// resolveTaskListID resolves a supplied alias-or-real list id, or picks
// the account's first task list when none was given.
func resolveTaskListID(ctx context.Context, call *Call, deps *Deps, raw string) (string, error) {
	if raw != "" {
		return call.Aliases().ResolveTaskList(raw), nil
	}

	lists, err := deps.Tasks.ListTaskLists(ctx, call.Conn)
	if err != nil {
		return "", err
	}
	if len(lists) == 0 {
		return "", koyomiErrors.NotFound("no task lists are available for this account")
	}
	defaultID := lists[0].ID
	call.Aliases().RegisterTaskList(defaultID)
	return defaultID, nil
}
