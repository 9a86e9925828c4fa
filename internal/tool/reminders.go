package tool

import (
	"context"
	"encoding/json"

	"github.com/harunnryd/koyomi/internal/reminder"
)

type scheduleTriggerReminderTool struct {
	deps *Deps
}

func (t *scheduleTriggerReminderTool) Name() string { return "schedule_trigger_reminder" }

func (t *scheduleTriggerReminderTool) Description() string {
	return "Schedule a reminder that fires when the user enters or exits the car."
}

func (t *scheduleTriggerReminderTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text":         map[string]interface{}{"type": "string"},
			"trigger_type": map[string]interface{}{"type": "string", "enum": []string{"enter_car", "exit_car"}},
		},
		"required": []string{"text", "trigger_type"},
	}
}

func (t *scheduleTriggerReminderTool) Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Text        string `json:"text"`
		Title       string `json:"title"`
		TriggerType string `json:"trigger_type"`
		Trigger     string `json:"trigger"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}

	created, err := t.deps.Reminders.Schedule(
		call.Owner,
		firstNonEmpty(args.Text, args.Title),
		firstNonEmpty(args.TriggerType, args.Trigger),
	)
	if err != nil {
		return nil, err
	}
	return encodeResult(map[string]interface{}{
		"reminder": created,
	})
}

type listTriggerRemindersTool struct {
	deps *Deps
}

func (t *listTriggerRemindersTool) Name() string { return "list_trigger_reminders" }

func (t *listTriggerRemindersTool) Description() string {
	return "List the user's trigger reminders, fired and pending."
}

func (t *listTriggerRemindersTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *listTriggerRemindersTool) Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error) {
	reminders := t.deps.Reminders.List(call.Owner)
	if reminders == nil {
		reminders = []*reminder.Reminder{}
	}
	return encodeResult(map[string]interface{}{
		"reminders": reminders,
	})
}
