package google

import (
	"context"
	"time"
)

// CalendarAPI is the external calendar source consumed by the core.
type CalendarAPI interface {
	ListCalendars(ctx context.Context, conn *Connection) ([]CalendarView, error)
	ListEvents(ctx context.Context, conn *Connection, calendarID string, start, end time.Time) ([]EventView, error)
	CreateEvent(ctx context.Context, conn *Connection, calendarID string, draft EventDraft) (EventView, error)
	UpdateEvent(ctx context.Context, conn *Connection, calendarID, eventID string, patch EventPatch) (EventView, error)
}

// TasksAPI is the external task source consumed by the core.
type TasksAPI interface {
	ListTaskLists(ctx context.Context, conn *Connection) ([]TaskListView, error)
	ListTasks(ctx context.Context, conn *Connection, taskListID string, start, end *time.Time) ([]TaskView, error)
	CreateTask(ctx context.Context, conn *Connection, taskListID, title, notes string, due *time.Time) (TaskView, error)
	UpdateTask(ctx context.Context, conn *Connection, taskListID, taskID string, patch TaskPatch) (TaskView, error)
}
