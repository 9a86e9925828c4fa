package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/harunnryd/koyomi/internal/timeutil"
)

type wireTaskListPage struct {
	Items []wireTaskList `json:"items"`
}

type wireTaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type wireTaskPage struct {
	Items []wireTask `json:"items"`
}

type wireTask struct {
	ID     string  `json:"id,omitempty"`
	Title  string  `json:"title,omitempty"`
	Notes  string  `json:"notes,omitempty"`
	Status string  `json:"status,omitempty"`
	Due    *string `json:"due,omitempty"`
}

func (s *Service) ListTaskLists(ctx context.Context, conn *Connection) ([]TaskListView, error) {
	client, err := s.client(ctx, conn)
	if err != nil {
		return nil, err
	}

	var page wireTaskListPage
	if err := s.doJSON(ctx, client, http.MethodGet, tasksBaseURL+"/users/@me/lists", nil, &page); err != nil {
		return nil, err
	}

	lists := make([]TaskListView, 0, len(page.Items))
	for _, item := range page.Items {
		lists = append(lists, TaskListView{ID: item.ID, Title: item.Title})
	}
	return lists, nil
}

// ListTasks lists the tasks of one list. When both start and end are
// given, the result is narrowed to tasks due inside that day window;
// tasks without a due date are dropped from a windowed listing.
func (s *Service) ListTasks(ctx context.Context, conn *Connection, taskListID string, start, end *time.Time) ([]TaskView, error) {
	client, err := s.client(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("showCompleted", "true")
	query.Set("showHidden", "false")
	endpoint := fmt.Sprintf("%s/lists/%s/tasks?%s", tasksBaseURL, url.PathEscape(taskListID), query.Encode())

	var page wireTaskPage
	if err := s.doJSON(ctx, client, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}

	tasks := make([]TaskView, 0, len(page.Items))
	for _, item := range page.Items {
		tasks = append(tasks, s.mapTask(item))
	}

	if start == nil || end == nil {
		return tasks, nil
	}

	windowStart := timeutil.StartOfDay(start.In(s.loc))
	windowEnd := timeutil.EndOfDay(end.In(s.loc))
	filtered := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		if task.Due == "" {
			continue
		}
		due, err := timeutil.ParseLocal(task.Due, s.loc)
		if err != nil {
			continue
		}
		if !due.Before(windowStart) && !due.After(windowEnd) {
			filtered = append(filtered, task)
		}
	}
	return filtered, nil
}

func (s *Service) CreateTask(ctx context.Context, conn *Connection, taskListID, title, notes string, due *time.Time) (TaskView, error) {
	client, err := s.client(ctx, conn)
	if err != nil {
		return TaskView{}, err
	}

	body := wireTask{Title: title}
	if notes != "" {
		body.Notes = notes
	}
	if due != nil {
		formatted := due.Format(time.RFC3339)
		body.Due = &formatted
	}

	endpoint := fmt.Sprintf("%s/lists/%s/tasks", tasksBaseURL, url.PathEscape(taskListID))

	var created wireTask
	if err := s.doJSON(ctx, client, http.MethodPost, endpoint, body, &created); err != nil {
		return TaskView{}, err
	}
	return s.mapTask(created), nil
}

func (s *Service) UpdateTask(ctx context.Context, conn *Connection, taskListID, taskID string, patch TaskPatch) (TaskView, error) {
	client, err := s.client(ctx, conn)
	if err != nil {
		return TaskView{}, err
	}

	body := map[string]interface{}{}
	if patch.Title != "" {
		body["title"] = patch.Title
	}
	if patch.Notes != "" {
		body["notes"] = patch.Notes
	}
	if patch.Status != "" {
		body["status"] = patch.Status
	}
	if patch.Due != nil {
		body["due"] = patch.Due.Format(time.RFC3339)
	} else if patch.ClearDue {
		body["due"] = nil
	}

	endpoint := fmt.Sprintf("%s/lists/%s/tasks/%s", tasksBaseURL, url.PathEscape(taskListID), url.PathEscape(taskID))

	var updated wireTask
	if err := s.doJSON(ctx, client, http.MethodPatch, endpoint, body, &updated); err != nil {
		return TaskView{}, err
	}
	return s.mapTask(updated), nil
}

func (s *Service) mapTask(task wireTask) TaskView {
	view := TaskView{
		ID:     task.ID,
		Title:  task.Title,
		Notes:  task.Notes,
		Status: task.Status,
	}
	if task.Due != nil && *task.Due != "" {
		if due, err := time.Parse(time.RFC3339, *task.Due); err == nil {
			view.Due = due.In(s.loc).Format("2006-01-02")
		}
	}
	return view
}
