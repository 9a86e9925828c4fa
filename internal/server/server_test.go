package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harunnryd/koyomi/internal/config"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/reminder"
	"github.com/harunnryd/koyomi/internal/session"
	"github.com/harunnryd/koyomi/internal/state"
	"github.com/harunnryd/koyomi/internal/tasklist"
	"github.com/harunnryd/koyomi/internal/timeutil"
	"github.com/harunnryd/koyomi/internal/tool"
	"github.com/harunnryd/koyomi/internal/visibility"
)

type fakeGoogle struct {
	calendars []google.CalendarView
	taskLists []google.TaskListView
}

func (f *fakeGoogle) ListCalendars(ctx context.Context, conn *google.Connection) ([]google.CalendarView, error) {
	return f.calendars, nil
}

func (f *fakeGoogle) ListEvents(ctx context.Context, conn *google.Connection, calendarID string, start, end time.Time) ([]google.EventView, error) {
	return nil, nil
}

func (f *fakeGoogle) CreateEvent(ctx context.Context, conn *google.Connection, calendarID string, draft google.EventDraft) (google.EventView, error) {
	return google.EventView{ID: "evt-created", Summary: draft.Summary}, nil
}

func (f *fakeGoogle) UpdateEvent(ctx context.Context, conn *google.Connection, calendarID, eventID string, patch google.EventPatch) (google.EventView, error) {
	return google.EventView{ID: eventID}, nil
}

func (f *fakeGoogle) ListTaskLists(ctx context.Context, conn *google.Connection) ([]google.TaskListView, error) {
	return f.taskLists, nil
}

func (f *fakeGoogle) ListTasks(ctx context.Context, conn *google.Connection, taskListID string, start, end *time.Time) ([]google.TaskView, error) {
	return nil, nil
}

func (f *fakeGoogle) CreateTask(ctx context.Context, conn *google.Connection, taskListID, title, notes string, due *time.Time) (google.TaskView, error) {
	return google.TaskView{ID: "task-created", Title: title}, nil
}

func (f *fakeGoogle) UpdateTask(ctx context.Context, conn *google.Connection, taskListID, taskID string, patch google.TaskPatch) (google.TaskView, error) {
	return google.TaskView{ID: taskID}, nil
}

type serverFixture struct {
	srv      *Server
	ts       *httptest.Server
	sessions *session.Store
	client   *http.Client
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	fake := &fakeGoogle{
		calendars: []google.CalendarView{
			{ID: "primary", Name: "Personal", Primary: true, AccessRole: "owner"},
			{ID: "cal-team", Name: "Team", AccessRole: "writer"},
		},
		taskLists: []google.TaskListView{{ID: "list-default", Title: "My Tasks"}},
	}

	googleService, err := google.NewService(config.GoogleConfig{
		Timezone:       "UTC",
		RequestTimeout: "5s",
	})
	require.NoError(t, err)

	sessions := session.NewStore(15 * time.Minute)
	visibilityService := visibility.NewService(fake, 30*time.Minute, 7*24*time.Hour)
	taskListCache := tasklist.NewCache(fake, time.Hour)

	store, err := reminder.NewStore(filepath.Join(t.TempDir(), "reminders.json"), reminder.DefaultLockConfig())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	reminderService := reminder.NewService(fake, taskListCache, store, time.UTC)

	registry := tool.NewRegistry()
	tool.RegisterBuiltins(registry, &tool.Deps{
		Tasks:      fake,
		Calendars:  fake,
		Visibility: visibilityService,
		Reminders:  reminderService,
		Window:     timeutil.WindowDefaults{StartTime: "09:00", Duration: time.Hour, Location: time.UTC},
		Location:   time.UTC,
	})

	srv := New(Deps{
		Config:     config.Config{Session: config.SessionConfig{CookieName: "koyomi_session"}},
		Sessions:   sessions,
		Google:     googleService,
		Visibility: visibilityService,
		State:      state.NewService(taskListCache, time.UTC),
		Reminders:  reminderService,
		Runner:     tool.NewRunner(registry),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &serverFixture{
		srv:      srv,
		ts:       ts,
		sessions: sessions,
		client:   &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error { return http.ErrUseLastResponse }},
	}
}

// connectedSession creates a session with a linked Google connection
// and returns a cookie naming it.
func (f *serverFixture) connectedSession() *http.Cookie {
	id, sess := f.sessions.Ensure("")
	sess.Google = &google.Connection{Email: "user@example.com"}
	return &http.Cookie{Name: "koyomi_session", Value: id}
}

func (f *serverFixture) request(t *testing.T, method, path, body string, cookie *http.Cookie) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, reader)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	f := newServerFixture(t)

	resp, body := f.request(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"ok"`, string(body["status"]))
}

func TestSessionCookieIssuedOnce(t *testing.T) {
	f := newServerFixture(t)

	resp, _ := f.request(t, http.MethodGet, "/api/v1/state", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var issued *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "koyomi_session" {
			issued = cookie
		}
	}
	require.NotNil(t, issued)
	assert.NotEmpty(t, issued.Value)

	// Same cookie back: no new cookie set.
	resp2, _ := f.request(t, http.MethodGet, "/api/v1/state", "", issued)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	for _, cookie := range resp2.Cookies() {
		assert.NotEqual(t, "koyomi_session", cookie.Name)
	}
}

func TestStateDisconnected(t *testing.T) {
	f := newServerFixture(t)

	resp, body := f.request(t, http.MethodGet, "/api/v1/state", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "false", string(body["connected"]))

	var vars state.Variables
	require.NoError(t, json.Unmarshal(body["variables"], &vars))
	assert.NotEmpty(t, vars.Date)
	assert.Empty(t, vars.TaskLists)
}

func TestCalendarsRequireConnection(t *testing.T) {
	f := newServerFixture(t)

	resp, _ := f.request(t, http.MethodGet, "/api/v1/calendars/available", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCalendarsAvailableMasked(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.connectedSession()

	resp, body := f.request(t, http.MethodGet, "/api/v1/calendars/available", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var calendars []google.CalendarView
	require.NoError(t, json.Unmarshal(body["calendars"], &calendars))
	require.Len(t, calendars, 2)
	for _, calendar := range calendars {
		assert.NotContains(t, []string{"primary", "cal-team"}, calendar.ID)
	}
}

func TestVisibleCalendarsRoundTrip(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.connectedSession()

	// Default selection is the primary calendar only.
	resp, body := f.request(t, http.MethodGet, "/api/v1/calendars/visible", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var visible []google.CalendarView
	require.NoError(t, json.Unmarshal(body["calendars"], &visible))
	require.Len(t, visible, 1)
	assert.Equal(t, "Personal", visible[0].Name)

	// Fetch available aliases, then select both.
	_, availableBody := f.request(t, http.MethodGet, "/api/v1/calendars/available", "", cookie)
	var available []google.CalendarView
	require.NoError(t, json.Unmarshal(availableBody["calendars"], &available))

	payload := `{"calendar_ids":["` + available[0].ID + `","` + available[1].ID + `"]}`
	resp, body = f.request(t, http.MethodPut, "/api/v1/calendars/visible", payload, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body["calendars"], &visible))
	assert.Len(t, visible, 2)
}

func TestToolExecuteEndpoint(t *testing.T) {
	f := newServerFixture(t)

	resp, body := f.request(t, http.MethodPost, "/api/v1/tools/execute",
		`{"tool":"schedule_trigger_reminder","arguments":{"text":"buy milk","trigger_type":"enter_car"}}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body["result"], &result))
	var created reminder.Reminder
	require.NoError(t, json.Unmarshal(result["reminder"], &created))
	assert.Equal(t, reminder.StatusPending, created.Status)
}

func TestToolExecuteUnknownTool(t *testing.T) {
	f := newServerFixture(t)

	resp, _ := f.request(t, http.MethodPost, "/api/v1/tools/execute", `{"tool":"nope","arguments":{}}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToolExecuteNotConnected(t *testing.T) {
	f := newServerFixture(t)

	resp, _ := f.request(t, http.MethodPost, "/api/v1/tools/execute", `{"tool":"list_task_lists","arguments":{}}`, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReminderEndpoints(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.connectedSession()

	resp, _ := f.request(t, http.MethodPost, "/api/v1/reminders", `{"text":"buy milk","trigger_type":"enter car"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := f.request(t, http.MethodGet, "/api/v1/reminders", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reminders []reminder.Reminder
	require.NoError(t, json.Unmarshal(body["reminders"], &reminders))
	require.Len(t, reminders, 1)

	resp, body = f.request(t, http.MethodPost, "/api/v1/triggers", `{"trigger_type":"enter_car"}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body["reminders"], &reminders))
	require.Len(t, reminders, 1)
	assert.Equal(t, reminder.StatusFired, reminders[0].Status)
	assert.Equal(t, "task-created", reminders[0].GoogleTaskID)
}

func TestTriggerInvalidType(t *testing.T) {
	f := newServerFixture(t)

	resp, _ := f.request(t, http.MethodPost, "/api/v1/triggers", `{"trigger_type":"teleport"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.connectedSession()

	resp, _ := f.request(t, http.MethodPost, "/api/v1/session/logout", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, ok := f.sessions.Get(cookie.Value)
	assert.False(t, ok)
}

func TestLoginRequiresEmail(t *testing.T) {
	f := newServerFixture(t)

	resp, _ := f.request(t, http.MethodPost, "/api/v1/auth/login", `{"name":"Ada"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginOwnsReminders(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.connectedSession()

	// Scheduled before login: grouped under the session token.
	resp, _ := f.request(t, http.MethodPost, "/api/v1/reminders", `{"text":"buy milk","trigger_type":"enter_car"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := f.request(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","name":"Ada"}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user session.UserProfile
	require.NoError(t, json.Unmarshal(body["user"], &user))
	require.NotEmpty(t, user.ID)

	// The new identity does not see the session-owned reminder.
	resp, body = f.request(t, http.MethodGet, "/api/v1/reminders", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reminders []reminder.Reminder
	require.NoError(t, json.Unmarshal(body["reminders"], &reminders))
	assert.Empty(t, reminders)

	resp, _ = f.request(t, http.MethodPost, "/api/v1/reminders", `{"text":"call mom","trigger_type":"exit_car"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Re-login keeps the user id, so ownership carries over.
	resp, body = f.request(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ada@work.example"}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again session.UserProfile
	require.NoError(t, json.Unmarshal(body["user"], &again))
	assert.Equal(t, user.ID, again.ID)

	_, body = f.request(t, http.MethodGet, "/api/v1/reminders", "", cookie)
	require.NoError(t, json.Unmarshal(body["reminders"], &reminders))
	require.Len(t, reminders, 1)
	assert.Equal(t, "call mom", reminders[0].Text)
}

func TestLoginResetsAliases(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.connectedSession()

	_, _ = f.request(t, http.MethodGet, "/api/v1/calendars/available", "", cookie)
	sess, ok := f.sessions.Get(cookie.Value)
	require.True(t, ok)
	require.NotZero(t, sess.AliasTable.Counter)

	resp, _ := f.request(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com"}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, sess.AliasTable.Counter)
}

func TestAuthLogoutKeepsSession(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.connectedSession()
	_, _ = f.request(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com"}`, cookie)

	resp, _ := f.request(t, http.MethodPost, "/api/v1/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sess, ok := f.sessions.Get(cookie.Value)
	require.True(t, ok)
	assert.Nil(t, sess.User)
	assert.Nil(t, sess.Google)

	resp, body := f.request(t, http.MethodGet, "/api/v1/auth/session", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", string(body["user"]))
	assert.Contains(t, string(body["google"]), `"connected":false`)
}

func TestAuthStartUnconfigured(t *testing.T) {
	f := newServerFixture(t)

	resp, _ := f.request(t, http.MethodGet, "/auth/google", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAuthCallbackUnknownState(t *testing.T) {
	f := newServerFixture(t)

	resp, _ := f.request(t, http.MethodGet, "/auth/google/callback?code=abc&state=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDisconnectClearsConnection(t *testing.T) {
	f := newServerFixture(t)
	cookie := f.connectedSession()

	resp, _ := f.request(t, http.MethodPost, "/auth/google/disconnect", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sess, ok := f.sessions.Get(cookie.Value)
	require.True(t, ok)
	assert.Nil(t, sess.Google)
}
