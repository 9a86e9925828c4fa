// Package server exposes the HTTP surface: tool execution, calendar
// visibility management, reminders, trigger events, OAuth linking and
// prompt state. Sessions ride an opaque cookie token.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/harunnryd/koyomi/internal/concurrency"
	"github.com/harunnryd/koyomi/internal/config"
	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/logger"
	"github.com/harunnryd/koyomi/internal/reminder"
	"github.com/harunnryd/koyomi/internal/session"
	"github.com/harunnryd/koyomi/internal/state"
	"github.com/harunnryd/koyomi/internal/tool"
	"github.com/harunnryd/koyomi/internal/visibility"
)

type Server struct {
	server     *http.Server
	cookieName string

	sessions   *session.Store
	locks      *concurrency.SessionLocks
	google     *google.Service
	visibility *visibility.Service
	state      *state.Service
	reminders  *reminder.Service
	runner     *tool.Runner
}

type Deps struct {
	Config     config.Config
	Sessions   *session.Store
	Google     *google.Service
	Visibility *visibility.Service
	State      *state.Service
	Reminders  *reminder.Service
	Runner     *tool.Runner
}

func New(deps Deps) *Server {
	mux := http.NewServeMux()
	s := &Server{
		cookieName: deps.Config.Session.CookieName,
		sessions:   deps.Sessions,
		locks:      concurrency.NewSessionLocks(),
		google:     deps.Google,
		visibility: deps.Visibility,
		state:      deps.State,
		reminders:  deps.Reminders,
		runner:     deps.Runner,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", deps.Config.Server.Port),
			Handler: mux,
		},
	}
	if s.cookieName == "" {
		s.cookieName = config.DefaultSessionCookieName
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/state", s.withSession(s.handleState))
	mux.HandleFunc("/api/v1/tools", s.handleToolDescriptors)
	mux.HandleFunc("/api/v1/tools/execute", s.withSession(s.handleToolExecute))
	mux.HandleFunc("/api/v1/calendars/available", s.withSession(s.handleCalendarsAvailable))
	mux.HandleFunc("/api/v1/calendars/visible", s.withSession(s.handleCalendarsVisible))
	mux.HandleFunc("/api/v1/calendars/refresh", s.withSession(s.handleCalendarsRefresh))
	mux.HandleFunc("/api/v1/reminders", s.withSession(s.handleReminders))
	mux.HandleFunc("/api/v1/triggers", s.withSession(s.handleTrigger))
	mux.HandleFunc("/api/v1/session/logout", s.withSession(s.handleLogout))
	mux.HandleFunc("/api/v1/auth/session", s.withSession(s.handleAuthSession))
	mux.HandleFunc("/api/v1/auth/login", s.withSession(s.handleLogin))
	mux.HandleFunc("/api/v1/auth/logout", s.withSession(s.handleAuthLogout))
	mux.HandleFunc("/auth/google", s.withSession(s.handleAuthStart))
	mux.HandleFunc("/auth/google/callback", s.handleAuthCallback)
	mux.HandleFunc("/auth/google/disconnect", s.withSession(s.handleAuthDisconnect))

	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() {
	concurrency.Go("http-server", func() {
		slog.Info("Starting HTTP server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
		}
	})
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session)

// withSession resolves (or creates) the cookie session and serializes
// handling per session, so concurrent requests cannot interleave alias
// table or cache mutation.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, sess := s.ensureSession(w, r)

		traceID := ulid.Make().String()
		ctx := logger.WithTraceID(r.Context(), traceID)
		ctx = logger.WithSessionID(ctx, sessionID)

		s.locks.Lock(sessionID)
		defer s.locks.Unlock(sessionID)

		next(w, r.WithContext(ctx), sessionID, sess)
	}
}

func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (string, *session.Session) {
	var cookieValue string
	if cookie, err := r.Cookie(s.cookieName); err == nil {
		cookieValue = cookie.Value
	}

	sessionID, sess := s.sessions.Ensure(cookieValue)
	if sessionID != cookieValue {
		s.setSessionCookie(w, sessionID, 0)
	}
	return sessionID, sess
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, koyomiErrors.HTTPStatus(err), map[string]string{
		"error": err.Error(),
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
