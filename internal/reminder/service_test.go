package reminder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harunnryd/koyomi/internal/errors"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/session"
	"github.com/harunnryd/koyomi/internal/tasklist"
)

type fakeTasksAPI struct {
	lists     []google.TaskListView
	created   []google.TaskView
	createErr error
	lastDue   *time.Time
}

func (f *fakeTasksAPI) ListTaskLists(ctx context.Context, conn *google.Connection) ([]google.TaskListView, error) {
	out := make([]google.TaskListView, len(f.lists))
	copy(out, f.lists)
	return out, nil
}

func (f *fakeTasksAPI) ListTasks(ctx context.Context, conn *google.Connection, taskListID string, start, end *time.Time) ([]google.TaskView, error) {
	return nil, nil
}

func (f *fakeTasksAPI) CreateTask(ctx context.Context, conn *google.Connection, taskListID, title, notes string, due *time.Time) (google.TaskView, error) {
	if f.createErr != nil {
		return google.TaskView{}, f.createErr
	}
	f.lastDue = due
	task := google.TaskView{ID: "task-" + title, Title: title, Notes: notes}
	f.created = append(f.created, task)
	return task, nil
}

func (f *fakeTasksAPI) UpdateTask(ctx context.Context, conn *google.Connection, taskListID, taskID string, patch google.TaskPatch) (google.TaskView, error) {
	return google.TaskView{}, nil
}

func newServiceFixture(t *testing.T) (*Service, *fakeTasksAPI, *session.Session) {
	t.Helper()
	api := &fakeTasksAPI{lists: []google.TaskListView{{ID: "list-default", Title: "My Tasks"}}}
	store := newTestStore(t, filepath.Join(t.TempDir(), "reminders.json"))
	svc := NewService(api, tasklist.NewCache(api, time.Hour), store, time.UTC)
	return svc, api, session.New()
}

func TestNormalizeTrigger(t *testing.T) {
	cases := map[string]TriggerType{
		"enter_car":    TriggerEnterCar,
		"Enter":        TriggerEnterCar,
		"entering car": TriggerEnterCar,
		"in_car":       TriggerEnterCar,
		"exit_car":     TriggerExitCar,
		"exit":         TriggerExitCar,
		"leaving car":  TriggerExitCar,
		"Out of car":   TriggerExitCar,
	}
	for raw, want := range cases {
		got, err := NormalizeTrigger(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "  ", "teleport", "car"} {
		_, err := NormalizeTrigger(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.IsCategory(err, errors.ErrInvalidInput))
	}
}

func TestScheduleRequiresText(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	_, err := svc.Schedule("owner-1", "   ", "enter_car")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrInvalidInput))
}

func TestScheduleAndList(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	created, err := svc.Schedule("owner-1", "  buy milk  ", "entering car")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "buy milk", created.Text)
	assert.Equal(t, TriggerEnterCar, created.TriggerType)
	assert.Equal(t, StatusPending, created.Status)

	reminders := svc.List("owner-1")
	require.Len(t, reminders, 1)
	assert.Empty(t, svc.List("owner-2"))
}

func TestFireTransitionsAndCreatesTask(t *testing.T) {
	svc, api, sess := newServiceFixture(t)
	conn := &google.Connection{}

	_, err := svc.Schedule("owner-1", "buy milk", "enter_car")
	require.NoError(t, err)
	_, err = svc.Schedule("owner-1", "grab umbrella", "exit_car")
	require.NoError(t, err)

	triggerType, fired, err := svc.Fire(context.Background(), "owner-1", "in_car", conn, sess)
	require.NoError(t, err)
	assert.Equal(t, TriggerEnterCar, triggerType)
	require.Len(t, fired, 1)

	got := fired[0]
	assert.Equal(t, StatusFired, got.Status)
	require.NotNil(t, got.FiredAt)
	assert.Equal(t, "task-buy milk", got.GoogleTaskID)
	assert.NotEmpty(t, got.GoogleTaskAlias)
	assert.Equal(t, "list-default", got.TaskListID)
	assert.Empty(t, got.TaskError)

	require.Len(t, api.created, 1)
	assert.Equal(t, "Triggered when you enter car.", api.created[0].Notes)
	require.NotNil(t, api.lastDue)
	assert.Equal(t, 9, api.lastDue.Hour())

	// The exit_car reminder is untouched.
	for _, r := range svc.List("owner-1") {
		if r.TriggerType == TriggerExitCar {
			assert.Equal(t, StatusPending, r.Status)
		}
	}
}

func TestFireIsIdempotentPerReminder(t *testing.T) {
	svc, _, sess := newServiceFixture(t)
	conn := &google.Connection{}

	_, err := svc.Schedule("owner-1", "buy milk", "enter_car")
	require.NoError(t, err)

	_, first, err := svc.Fire(context.Background(), "owner-1", "enter_car", conn, sess)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, second, err := svc.Fire(context.Background(), "owner-1", "enter_car", conn, sess)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestFireWithoutConnectionRecordsError(t *testing.T) {
	svc, _, sess := newServiceFixture(t)

	_, err := svc.Schedule("owner-1", "buy milk", "enter_car")
	require.NoError(t, err)

	_, fired, err := svc.Fire(context.Background(), "owner-1", "enter_car", nil, sess)
	require.NoError(t, err)
	require.Len(t, fired, 1)

	assert.Equal(t, StatusFired, fired[0].Status)
	assert.NotEmpty(t, fired[0].TaskError)
	assert.Empty(t, fired[0].GoogleTaskID)
}

func TestFireTaskFailureStillFires(t *testing.T) {
	svc, api, sess := newServiceFixture(t)
	api.createErr = errors.Upstream("tasks api down")
	conn := &google.Connection{}

	_, err := svc.Schedule("owner-1", "buy milk", "enter_car")
	require.NoError(t, err)

	_, fired, err := svc.Fire(context.Background(), "owner-1", "enter_car", conn, sess)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, StatusFired, fired[0].Status)
	assert.Contains(t, fired[0].TaskError, "tasks api down")
}

func TestFireInvalidTrigger(t *testing.T) {
	svc, _, sess := newServiceFixture(t)

	_, _, err := svc.Fire(context.Background(), "owner-1", "teleport", nil, sess)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrInvalidInput))
}

func TestFiredStateSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.json")
	api := &fakeTasksAPI{lists: []google.TaskListView{{ID: "list-default", Title: "My Tasks"}}}

	store, err := NewStore(path, DefaultLockConfig())
	require.NoError(t, err)
	svc := NewService(api, tasklist.NewCache(api, time.Hour), store, time.UTC)

	_, err = svc.Schedule("owner-1", "buy milk", "enter_car")
	require.NoError(t, err)
	_, _, err = svc.Fire(context.Background(), "owner-1", "enter_car", &google.Connection{}, session.New())
	require.NoError(t, err)
	store.Close()

	reopened := newTestStore(t, path)
	svc2 := NewService(api, tasklist.NewCache(api, time.Hour), reopened, time.UTC)
	reminders := svc2.List("owner-1")
	require.Len(t, reminders, 1)
	assert.Equal(t, StatusFired, reminders[0].Status)
	assert.NotNil(t, reminders[0].FiredAt)
}
