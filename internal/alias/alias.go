// Package alias masks Google resource identifiers behind opaque,
// session-private tokens so raw IDs never reach the model or the UI.
package alias

import (
	"strconv"
	"strings"
)

type Kind string

const (
	KindCalendar Kind = "calendar"
	KindTaskList Kind = "task_list"
	KindTask     Kind = "task"
	KindEvent    Kind = "event"
)

// Payload is the tagged variant an alias stands for. Only the fields
// matching Kind are populated.
type Payload struct {
	Kind       Kind   `json:"kind"`
	CalendarID string `json:"calendar_id,omitempty"`
	AccessRole string `json:"access_role,omitempty"`
	TaskListID string `json:"task_list_id,omitempty"`
	TaskID     string `json:"task_id,omitempty"`
	EventID    string `json:"event_id,omitempty"`
	Readonly   bool   `json:"readonly,omitempty"`
}

// dedupKey projects out the volatile fields (AccessRole on calendars,
// Readonly on events) so re-registrations with different annotations
// collapse to the same alias.
func dedupKey(p Payload) string {
	switch p.Kind {
	case KindCalendar:
		return join("calendar", p.CalendarID)
	case KindTaskList:
		return join("task_list", p.TaskListID)
	case KindTask:
		return join("task", p.TaskListID, p.TaskID)
	case KindEvent:
		return join("event", p.CalendarID, p.EventID)
	default:
		return join(string(p.Kind))
	}
}

func join(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// Table is the per-session alias state. Reverse is the exact inverse of
// Aliases under the dedup-key projection.
type Table struct {
	Counter int
	Aliases map[string]Payload
	Reverse map[string]string
}

func NewTable() *Table {
	return &Table{
		Aliases: make(map[string]Payload),
		Reverse: make(map[string]string),
	}
}

// Reset clears the counter and both maps. Used after login, logout and
// OAuth connect/disconnect so a new session view never sees stale aliases.
func (t *Table) Reset() {
	t.Counter = 0
	t.Aliases = make(map[string]Payload)
	t.Reverse = make(map[string]string)
}

func (t *Table) register(p Payload) string {
	key := dedupKey(p)
	if existing, ok := t.Reverse[key]; ok {
		return existing
	}

	t.Counter++
	issued := strconv.Itoa(t.Counter)
	t.Aliases[issued] = p
	t.Reverse[key] = issued
	return issued
}

func (t *Table) payload(a string) (Payload, bool) {
	p, ok := t.Aliases[a]
	return p, ok
}
