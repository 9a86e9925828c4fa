// Package reminder implements durable trigger reminders: free-text
// notes that fire when the user enters or exits the car, surviving
// process restarts through a JSON file store.
package reminder

import (
	"strings"
	"time"

	"github.com/harunnryd/koyomi/internal/errors"
)

type TriggerType string

const (
	TriggerEnterCar TriggerType = "enter_car"
	TriggerExitCar  TriggerType = "exit_car"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusFired   Status = "fired"
)

// Reminder is one durable trigger reminder. The Google task fields are
// filled in when firing manages to create a companion task; TaskError
// records why it could not.
type Reminder struct {
	ID              string      `json:"id"`
	Text            string      `json:"text"`
	TriggerType     TriggerType `json:"trigger_type"`
	Status          Status      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	FiredAt         *time.Time  `json:"fired_at,omitempty"`
	GoogleTaskID    string      `json:"google_task_id,omitempty"`
	GoogleTaskAlias string      `json:"google_task_alias,omitempty"`
	TaskListID      string      `json:"task_list_id,omitempty"`
	TaskError       string      `json:"task_error,omitempty"`
}

// Clone returns an independent copy.
func (r *Reminder) Clone() *Reminder {
	clone := *r
	if r.FiredAt != nil {
		firedAt := *r.FiredAt
		clone.FiredAt = &firedAt
	}
	return &clone
}

// NormalizeTrigger canonicalizes user-supplied trigger names, accepting
// a handful of synonyms for each side.
func NormalizeTrigger(raw string) (TriggerType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")

	switch normalized {
	case "enter", "entering_car", "in_car":
		normalized = string(TriggerEnterCar)
	case "exit", "leaving_car", "out_car", "out_of_car":
		normalized = string(TriggerExitCar)
	}

	switch TriggerType(normalized) {
	case TriggerEnterCar, TriggerExitCar:
		return TriggerType(normalized), nil
	default:
		return "", errors.InvalidInput("invalid trigger_type, supported: enter_car, exit_car")
	}
}
