// Package state builds the prompt state variables injected into each
// conversation turn: the current date, time and weekday plus the user's
// task lists when a Google account is connected.
package state

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/session"
	"github.com/harunnryd/koyomi/internal/tasklist"
)

// Variables is the flat key set the prompt layer interpolates.
// TaskLists is a JSON-encoded array of {id, name}, empty when none.
type Variables struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Day       string `json:"day"`
	TaskLists string `json:"tasklists,omitempty"`
}

type Service struct {
	taskLists *tasklist.Cache
	loc       *time.Location
	now       func() time.Time
}

func NewService(taskLists *tasklist.Cache, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		taskLists: taskLists,
		loc:       loc,
		now:       time.Now,
	}
}

// Variables assembles the state for one turn. Task list loading is best
// effort: any upstream failure degrades to an empty list rather than
// failing the turn.
func (s *Service) Variables(ctx context.Context, conn *google.Connection, sess *session.Session) Variables {
	current := s.now().In(s.loc)

	vars := Variables{
		Date: current.Format("2006-01-02"),
		Time: current.Format("15:04"),
		Day:  current.Format("Monday"),
	}

	if conn == nil {
		return vars
	}

	lists := s.taskLists.Cached(sess)
	if lists == nil {
		fetched, err := s.taskLists.Prefetch(ctx, conn, sess)
		if err != nil {
			slog.Warn("State task list fetch failed", "error", err)
			return vars
		}
		lists = fetched
	}

	vars.TaskLists = encodeTaskLists(sess.Aliases().MaskTaskLists(lists))
	return vars
}

func encodeTaskLists(lists []google.TaskListView) string {
	type entry struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	normalized := make([]entry, 0, len(lists))
	for _, list := range lists {
		if list.ID == "" || list.Title == "" {
			continue
		}
		normalized = append(normalized, entry{ID: list.ID, Name: list.Title})
	}
	if len(normalized) == 0 {
		return ""
	}

	encoded, err := json.Marshal(normalized)
	if err != nil {
		return ""
	}
	return string(encoded)
}
