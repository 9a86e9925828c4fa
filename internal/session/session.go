package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/koyomi/internal/alias"
	"github.com/harunnryd/koyomi/internal/google"
)

// UserProfile is the authenticated identity attached to a session, when
// a login flow has established one.
type UserProfile struct {
	ID    string
	Email string
	Name  string
}

// CalendarCache is the two-tier per-session calendar cache: the list of
// calendars the account can reach, and the user's visible selection.
type CalendarCache struct {
	Available          []google.CalendarView
	AvailableExpiresAt time.Time
	VisibleIDs         []string
	VisibleExpiresAt   time.Time
}

func (c *CalendarCache) Reset() {
	*c = CalendarCache{}
}

type TaskListCache struct {
	TaskLists []google.TaskListView
	ExpiresAt time.Time
}

func (c *TaskListCache) Reset() {
	*c = TaskListCache{}
}

// Session owns all per-session mutable state. Sessions never expire on
// their own; only logout or disconnect clears them.
type Session struct {
	User          *UserProfile
	Google        *google.Connection
	AliasTable    *alias.Table
	CalendarCache CalendarCache
	TaskListCache TaskListCache
	OAuthState    string
}

func New() *Session {
	return &Session{
		AliasTable: alias.NewTable(),
	}
}

// Aliases returns the registry view over this session's alias table.
func (s *Session) Aliases() *alias.Registry {
	return alias.NewRegistry(s.AliasTable)
}

// Login attaches an authenticated identity. Repeated logins keep the
// existing user id so reminder ownership stays stable while the user
// is signed in; a fresh login mints a new one.
func (s *Session) Login(email, name string) *UserProfile {
	id := uuid.NewString()
	if s.User != nil && s.User.ID != "" {
		id = s.User.ID
	}
	s.User = &UserProfile{ID: id, Email: email, Name: name}
	return s.User
}

// Logout drops the authenticated identity. Callers that also want the
// Google connection gone pair this with Disconnect.
func (s *Session) Logout() {
	s.User = nil
}

// Connect installs a fresh Google connection, dropping every cache and
// alias the previous connection could have populated.
func (s *Session) Connect(conn *google.Connection) {
	s.Google = conn
	s.OAuthState = ""
	s.CalendarCache.Reset()
	s.TaskListCache.Reset()
	s.AliasTable.Reset()
}

// Disconnect severs the Google connection and clears dependent state.
func (s *Session) Disconnect() {
	s.Google = nil
	s.OAuthState = ""
	s.CalendarCache.Reset()
	s.TaskListCache.Reset()
	s.AliasTable.Reset()
}

// OwnerKey returns the identity reminders are grouped under: the
// authenticated user id when present, else the session token.
func (s *Session) OwnerKey(sessionID string) string {
	if s.User != nil && s.User.ID != "" {
		return s.User.ID
	}
	return sessionID
}
