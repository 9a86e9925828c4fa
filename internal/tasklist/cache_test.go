package tasklist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/session"
)

type fakeTasksAPI struct {
	lists     []google.TaskListView
	listCalls int
}

func (f *fakeTasksAPI) ListTaskLists(ctx context.Context, conn *google.Connection) ([]google.TaskListView, error) {
	f.listCalls++
	out := make([]google.TaskListView, len(f.lists))
	copy(out, f.lists)
	return out, nil
}

func (f *fakeTasksAPI) ListTasks(ctx context.Context, conn *google.Connection, taskListID string, start, end *time.Time) ([]google.TaskView, error) {
	return nil, nil
}

func (f *fakeTasksAPI) CreateTask(ctx context.Context, conn *google.Connection, taskListID, title, notes string, due *time.Time) (google.TaskView, error) {
	return google.TaskView{}, nil
}

func (f *fakeTasksAPI) UpdateTask(ctx context.Context, conn *google.Connection, taskListID, taskID string, patch google.TaskPatch) (google.TaskView, error) {
	return google.TaskView{}, nil
}

func TestCachedNeverFetches(t *testing.T) {
	api := &fakeTasksAPI{lists: []google.TaskListView{{ID: "l1", Title: "My Tasks"}}}
	cache := NewCache(api, time.Hour)
	sess := session.New()

	assert.Nil(t, cache.Cached(sess))
	assert.Equal(t, 0, api.listCalls)
}

func TestPrefetchPopulatesCache(t *testing.T) {
	api := &fakeTasksAPI{lists: []google.TaskListView{{ID: "l1", Title: "My Tasks"}}}
	cache := NewCache(api, time.Hour)
	sess := session.New()

	lists, err := cache.Prefetch(context.Background(), &google.Connection{}, sess)
	require.NoError(t, err)
	require.Len(t, lists, 1)

	cached := cache.Cached(sess)
	require.Len(t, cached, 1)
	assert.Equal(t, "l1", cached[0].ID)
}

func TestCacheExpires(t *testing.T) {
	api := &fakeTasksAPI{lists: []google.TaskListView{{ID: "l1", Title: "My Tasks"}}}
	cache := NewCache(api, time.Hour)
	current := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }
	sess := session.New()

	_, err := cache.Prefetch(context.Background(), &google.Connection{}, sess)
	require.NoError(t, err)

	current = current.Add(61 * time.Minute)
	assert.Nil(t, cache.Cached(sess))

	_, err = cache.CachedOrFetch(context.Background(), &google.Connection{}, sess)
	require.NoError(t, err)
	assert.Equal(t, 2, api.listCalls)
}
