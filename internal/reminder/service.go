package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/koyomi/internal/errors"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/session"
	"github.com/harunnryd/koyomi/internal/tasklist"
)

// Service coordinates reminder scheduling and firing. Firing a reminder
// also creates a Google task due today so the note surfaces in the
// user's task list; a failure there is recorded on the reminder without
// blocking the status transition.
type Service struct {
	tasks     google.TasksAPI
	taskLists *tasklist.Cache
	store     *Store
	loc       *time.Location
	now       func() time.Time
}

func NewService(tasks google.TasksAPI, taskLists *tasklist.Cache, store *Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		tasks:     tasks,
		taskLists: taskLists,
		store:     store,
		loc:       loc,
		now:       time.Now,
	}
}

// Schedule records a pending reminder for owner.
func (s *Service) Schedule(owner, text, rawTrigger string) (*Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.InvalidInput("reminder text is required")
	}
	triggerType, err := NormalizeTrigger(rawTrigger)
	if err != nil {
		return nil, err
	}

	created := &Reminder{
		ID:          uuid.NewString(),
		Text:        text,
		TriggerType: triggerType,
		Status:      StatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.store.Append(owner, created); err != nil {
		return nil, errors.Wrap(err, "persist reminder")
	}
	return created.Clone(), nil
}

// List returns all reminders for owner, any status.
func (s *Service) List(owner string) []*Reminder {
	return s.store.All(owner)
}

// Fire transitions every pending reminder matching the trigger to
// fired, attempting a Google task per reminder. It returns the fired
// reminders; an empty trigger event is not an error.
func (s *Service) Fire(ctx context.Context, owner, rawTrigger string, conn *google.Connection, sess *session.Session) (TriggerType, []*Reminder, error) {
	triggerType, err := NormalizeTrigger(rawTrigger)
	if err != nil {
		return "", nil, err
	}

	var fired []*Reminder
	mutateErr := s.store.Mutate(owner, func(reminders []*Reminder) error {
		for _, r := range reminders {
			if r.TriggerType != triggerType || r.Status != StatusPending {
				continue
			}
			firedAt := s.now()
			r.Status = StatusFired
			r.FiredAt = &firedAt

			taskID, taskAlias, taskListID, taskErr := s.createTask(ctx, conn, sess, r)
			if taskErr != nil {
				r.TaskError = taskErr.Error()
			} else {
				r.GoogleTaskID = taskID
				r.GoogleTaskAlias = taskAlias
				r.TaskListID = taskListID
				r.TaskError = ""
			}
			fired = append(fired, r.Clone())
		}
		return nil
	})
	if mutateErr != nil {
		return "", nil, errors.Wrap(mutateErr, "persist fired reminders")
	}
	return triggerType, fired, nil
}

// createTask creates the companion Google task for a fired reminder,
// due today at 09:00 local time.
func (s *Service) createTask(ctx context.Context, conn *google.Connection, sess *session.Session, r *Reminder) (string, string, string, error) {
	if conn == nil {
		return "", "", "", errors.NotConnected("task creation skipped")
	}

	taskListID, err := s.defaultTaskListID(ctx, conn, sess)
	if err != nil {
		return "", "", "", err
	}
	if taskListID == "" {
		return "", "", "", errors.NotFound("no Google task lists are available")
	}

	year, month, day := s.now().In(s.loc).Date()
	dueToday := time.Date(year, month, day, 9, 0, 0, 0, s.loc)

	trigger := strings.ReplaceAll(string(r.TriggerType), "_", " ")
	notes := "Triggered when you " + trigger + "."
	created, err := s.tasks.CreateTask(ctx, conn, taskListID, r.Text, notes, &dueToday)
	if err != nil {
		return "", "", "", err
	}

	taskAlias := sess.Aliases().RegisterTask(taskListID, created.ID)
	return created.ID, taskAlias, taskListID, nil
}

// defaultTaskListID picks the head of the cached task lists, fetching
// them when the cache is cold.
func (s *Service) defaultTaskListID(ctx context.Context, conn *google.Connection, sess *session.Session) (string, error) {
	lists, err := s.taskLists.CachedOrFetch(ctx, conn, sess)
	if err != nil {
		return "", err
	}
	if len(lists) == 0 {
		return "", nil
	}
	sess.Aliases().RegisterTaskList(lists[0].ID)
	return lists[0].ID, nil
}
