package google

import (
	"time"

	"golang.org/x/oauth2"
)

// Connection is the mutable credential holder for one linked Google
// account. The client layer refreshes Token in place; callers must hold
// the owning session's lock while a request is in flight.
type Connection struct {
	Email     string
	Token     *oauth2.Token
	Scope     string
	CreatedAt time.Time
}

// CalendarView is the normalized calendar entry exposed to the rest of
// the backend. ID is "primary" for the primary calendar.
type CalendarView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Primary    bool   `json:"primary"`
	AccessRole string `json:"access_role"`
	Readonly   bool   `json:"readonly"`
}

type TaskListView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TaskView carries a task with its due date normalized to a local
// date-only string (YYYY-MM-DD), empty when the task has no due date.
type TaskView struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	Status string `json:"status,omitempty"`
	Due    string `json:"due,omitempty"`
}

type EventView struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	CalendarID  string `json:"calendar_id,omitempty"`
	Calendar    string `json:"calendar,omitempty"`
	Readonly    bool   `json:"readonly"`
}

// EventDraft holds the fields for a new event.
type EventDraft struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// EventPatch holds partial updates for an existing event. Empty strings
// and zero times are skipped.
type EventPatch struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// TaskPatch holds partial updates for an existing task. Empty strings
// are skipped; ClearDue removes the due date when Due is nil.
type TaskPatch struct {
	Title    string
	Notes    string
	Status   string
	Due      *time.Time
	ClearDue bool
}
