package alias

import (
	"github.com/harunnryd/koyomi/internal/google"
)

// Registry exposes register/resolve/mask operations over one session's
// alias table. Resolution never fails: an unknown alias is treated as
// an already-real identifier and passed through unchanged.
type Registry struct {
	table *Table
}

func NewRegistry(table *Table) *Registry {
	return &Registry{table: table}
}

func (r *Registry) Reset() {
	r.table.Reset()
}

func (r *Registry) RegisterCalendar(calendarID, accessRole string) string {
	return r.table.register(Payload{
		Kind:       KindCalendar,
		CalendarID: calendarID,
		AccessRole: accessRole,
	})
}

func (r *Registry) RegisterTaskList(taskListID string) string {
	return r.table.register(Payload{
		Kind:       KindTaskList,
		TaskListID: taskListID,
	})
}

func (r *Registry) RegisterTask(taskListID, taskID string) string {
	return r.table.register(Payload{
		Kind:       KindTask,
		TaskListID: taskListID,
		TaskID:     taskID,
	})
}

func (r *Registry) RegisterEvent(eventID, calendarID string, readonly bool) string {
	if calendarID == "" {
		calendarID = "primary"
	}
	return r.table.register(Payload{
		Kind:       KindEvent,
		EventID:    eventID,
		CalendarID: calendarID,
		Readonly:   readonly,
	})
}

func (r *Registry) ResolveCalendar(aliasOrReal string) string {
	if p, ok := r.table.payload(aliasOrReal); ok && p.Kind == KindCalendar {
		return p.CalendarID
	}
	return aliasOrReal
}

func (r *Registry) ResolveTaskList(aliasOrReal string) string {
	if p, ok := r.table.payload(aliasOrReal); ok && p.Kind == KindTaskList {
		return p.TaskListID
	}
	return aliasOrReal
}

// ResolveTask resolves the list alias first; a known task alias carries
// its own list id, which wins over the supplied one.
func (r *Registry) ResolveTask(listAliasOrReal, taskAliasOrReal string) (string, string) {
	taskListID := r.ResolveTaskList(listAliasOrReal)
	if p, ok := r.table.payload(taskAliasOrReal); ok && p.Kind == KindTask {
		if p.TaskListID != "" {
			taskListID = p.TaskListID
		}
		return taskListID, p.TaskID
	}
	return taskListID, taskAliasOrReal
}

// ResolveEvent returns (calendarID, eventID), defaulting the calendar
// when the alias is not a known event.
func (r *Registry) ResolveEvent(aliasOrReal, defaultCalendar string) (string, string) {
	if p, ok := r.table.payload(aliasOrReal); ok && p.Kind == KindEvent {
		calendarID := p.CalendarID
		if calendarID == "" {
			calendarID = defaultCalendar
		}
		return calendarID, p.EventID
	}
	return defaultCalendar, aliasOrReal
}

// EventIsReadonly reports the readonly annotation recorded when the
// event was registered. Unknown aliases are not readonly; the calendar
// level check still applies.
func (r *Registry) EventIsReadonly(aliasOrReal string) bool {
	if p, ok := r.table.payload(aliasOrReal); ok && p.Kind == KindEvent {
		return p.Readonly
	}
	return false
}

// MaskCalendar swaps the real calendar id for an alias, preserving the
// remaining fields.
func (r *Registry) MaskCalendar(calendar google.CalendarView) google.CalendarView {
	masked := calendar
	masked.ID = r.RegisterCalendar(calendar.ID, calendar.AccessRole)
	return masked
}

func (r *Registry) MaskCalendars(calendars []google.CalendarView) []google.CalendarView {
	masked := make([]google.CalendarView, 0, len(calendars))
	for _, calendar := range calendars {
		masked = append(masked, r.MaskCalendar(calendar))
	}
	return masked
}

func (r *Registry) MaskTaskLists(lists []google.TaskListView) []google.TaskListView {
	masked := make([]google.TaskListView, 0, len(lists))
	for _, list := range lists {
		masked = append(masked, google.TaskListView{
			ID:    r.RegisterTaskList(list.ID),
			Title: list.Title,
		})
	}
	return masked
}

func (r *Registry) MaskTask(task google.TaskView, taskListID string) google.TaskView {
	masked := task
	masked.ID = r.RegisterTask(taskListID, task.ID)
	return masked
}

func (r *Registry) MaskTasks(tasks []google.TaskView, taskListID string) []google.TaskView {
	masked := make([]google.TaskView, 0, len(tasks))
	for _, task := range tasks {
		masked = append(masked, r.MaskTask(task, taskListID))
	}
	return masked
}

// MaskEvent hides both the event id and its real calendar id.
func (r *Registry) MaskEvent(event google.EventView, calendarID string) google.EventView {
	masked := event
	masked.ID = r.RegisterEvent(event.ID, calendarID, event.Readonly)
	masked.CalendarID = ""
	return masked
}

func (r *Registry) MaskEvents(events []google.EventView, defaultCalendarID string) []google.EventView {
	masked := make([]google.EventView, 0, len(events))
	for _, event := range events {
		target := event.CalendarID
		if target == "" {
			target = defaultCalendarID
		}
		if target == "" {
			target = "primary"
		}
		masked = append(masked, r.MaskEvent(event, target))
	}
	return masked
}
