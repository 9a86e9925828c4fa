package tool

import (
	"context"
	"encoding/json"
	"time"

	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/timeutil"
)

type listTaskListsTool struct {
	deps *Deps
}

func (t *listTaskListsTool) Name() string { return "list_task_lists" }

func (t *listTaskListsTool) Description() string {
	return "List the user's Google task lists."
}

func (t *listTaskListsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *listTaskListsTool) Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error) {
	if err := requireConnection(call); err != nil {
		return nil, err
	}

	lists, err := t.deps.Tasks.ListTaskLists(ctx, call.Conn)
	if err != nil {
		return nil, err
	}
	return encodeResult(map[string]interface{}{
		"data": call.Aliases().MaskTaskLists(lists),
	})
}

type listTasksTool struct {
	deps *Deps
}

func (t *listTasksTool) Name() string { return "list_tasks" }

func (t *listTasksTool) Description() string {
	return "List tasks from a task list, optionally narrowed to a due-date window."
}

func (t *listTasksTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task_list_id": map[string]interface{}{"type": "string"},
			"start_date":   map[string]interface{}{"type": "string"},
			"end_date":     map[string]interface{}{"type": "string"},
		},
	}
}

func (t *listTasksTool) Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error) {
	if err := requireConnection(call); err != nil {
		return nil, err
	}

	var args struct {
		TaskListID string `json:"task_list_id"`
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}

	taskListID, err := resolveTaskListID(ctx, call, t.deps, args.TaskListID)
	if err != nil {
		return nil, err
	}

	var start, end *time.Time
	if args.StartDate != "" {
		parsed, err := timeutil.ParseLocal(args.StartDate, t.deps.location())
		if err != nil {
			return nil, err
		}
		start = &parsed
	}
	if args.EndDate != "" {
		parsed, err := timeutil.ParseLocal(args.EndDate, t.deps.location())
		if err != nil {
			return nil, err
		}
		end = &parsed
	}

	tasks, err := t.deps.Tasks.ListTasks(ctx, call.Conn, taskListID, start, end)
	if err != nil {
		return nil, err
	}
	return encodeResult(map[string]interface{}{
		"task_list_id": call.Aliases().RegisterTaskList(taskListID),
		"data":         call.Aliases().MaskTasks(tasks, taskListID),
	})
}

type createTaskTool struct {
	deps *Deps
}

func (t *createTaskTool) Name() string { return "create_task" }

func (t *createTaskTool) Description() string {
	return "Create a task, defaulting to the account's first task list."
}

func (t *createTaskTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task_list_id": map[string]interface{}{"type": "string"},
			"title":        map[string]interface{}{"type": "string"},
			"notes":        map[string]interface{}{"type": "string"},
			"due_date":     map[string]interface{}{"type": "string"},
		},
		"required": []string{"title"},
	}
}

func (t *createTaskTool) Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error) {
	if err := requireConnection(call); err != nil {
		return nil, err
	}

	var args struct {
		TaskListID string `json:"task_list_id"`
		Title      string `json:"title"`
		Notes      string `json:"notes"`
		DueDate    string `json:"due_date"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	if args.Title == "" {
		return nil, koyomiErrors.InvalidInput("title is required")
	}

	taskListID, err := resolveTaskListID(ctx, call, t.deps, args.TaskListID)
	if err != nil {
		return nil, err
	}

	var due *time.Time
	if args.DueDate != "" {
		parsed, err := timeutil.ParseDateOnly(args.DueDate)
		if err != nil {
			return nil, err
		}
		due = &parsed
	}

	created, err := t.deps.Tasks.CreateTask(ctx, call.Conn, taskListID, args.Title, args.Notes, due)
	if err != nil {
		return nil, err
	}
	return encodeResult(map[string]interface{}{
		"task_list_id": call.Aliases().RegisterTaskList(taskListID),
		"created":      call.Aliases().MaskTask(created, taskListID),
	})
}

type updateTaskTool struct {
	deps *Deps
}

func (t *updateTaskTool) Name() string { return "update_task" }

func (t *updateTaskTool) Description() string {
	return "Update a task's title, notes, status or due date. An explicit empty due_date clears it."
}

func (t *updateTaskTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task_list_id": map[string]interface{}{"type": "string"},
			"task_id":      map[string]interface{}{"type": "string"},
			"title":        map[string]interface{}{"type": "string"},
			"notes":        map[string]interface{}{"type": "string"},
			"status":       map[string]interface{}{"type": "string"},
			"due_date":     map[string]interface{}{"type": "string"},
		},
		"required": []string{"task_id"},
	}
}

func (t *updateTaskTool) Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error) {
	if err := requireConnection(call); err != nil {
		return nil, err
	}

	var args struct {
		TaskListID string  `json:"task_list_id"`
		TaskID     string  `json:"task_id"`
		Title      string  `json:"title"`
		Notes      string  `json:"notes"`
		Status     string  `json:"status"`
		DueDate    *string `json:"due_date"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	if args.TaskID == "" {
		return nil, koyomiErrors.InvalidInput("task_id is required")
	}

	taskListID, err := resolveTaskListID(ctx, call, t.deps, args.TaskListID)
	if err != nil {
		return nil, err
	}
	taskListID, taskID := call.Aliases().ResolveTask(taskListID, args.TaskID)

	patch := google.TaskPatch{
		Title:  args.Title,
		Notes:  args.Notes,
		Status: args.Status,
	}
	if args.DueDate != nil {
		if *args.DueDate == "" {
			patch.ClearDue = true
		} else {
			parsed, err := timeutil.ParseDateOnly(*args.DueDate)
			if err != nil {
				return nil, err
			}
			patch.Due = &parsed
		}
	}

	updated, err := t.deps.Tasks.UpdateTask(ctx, call.Conn, taskListID, taskID, patch)
	if err != nil {
		return nil, err
	}
	return encodeResult(map[string]interface{}{
		"task_list_id": call.Aliases().RegisterTaskList(taskListID),
		"task_id":      call.Aliases().RegisterTask(taskListID, updated.ID),
		"updated":      call.Aliases().MaskTask(updated, taskListID),
	})
}
