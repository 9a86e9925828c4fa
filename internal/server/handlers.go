package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/reminder"
	"github.com/harunnryd/koyomi/internal/session"
	"github.com/harunnryd/koyomi/internal/tool"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToolDescriptors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": s.runner.Descriptors(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	vars := s.state.Variables(r.Context(), sess.Google, sess)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connected": sess.Google != nil,
		"variables": vars,
	})
}

type toolExecuteRequest struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolExecute(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req toolExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, koyomiErrors.InvalidInput("invalid request body"))
		return
	}
	if req.Tool == "" {
		writeError(w, koyomiErrors.InvalidInput("tool name is required"))
		return
	}

	call := &tool.Call{
		SessionID: sessionID,
		Session:   sess,
		Conn:      sess.Google,
		Owner:     sess.OwnerKey(sessionID),
	}
	result, err := s.runner.Execute(r.Context(), call, req.Tool, req.Arguments)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tool":   req.Tool,
		"result": result,
	})
}

func (s *Server) handleCalendarsAvailable(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if sess.Google == nil {
		writeError(w, koyomiErrors.NotConnected("Google is not connected"))
		return
	}

	available, err := s.visibility.AvailableCalendars(r.Context(), sess.Google, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"calendars": sess.Aliases().MaskCalendars(available),
	})
}

type visibleCalendarsRequest struct {
	CalendarIDs []string `json:"calendar_ids"`
}

func (s *Server) handleCalendarsVisible(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if sess.Google == nil {
		writeError(w, koyomiErrors.NotConnected("Google is not connected"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		visible, err := s.visibility.VisibleCalendars(r.Context(), sess.Google, sess)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"calendars": sess.Aliases().MaskCalendars(visible),
		})
	case http.MethodPut, http.MethodPost:
		var req visibleCalendarsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, koyomiErrors.InvalidInput("invalid request body"))
			return
		}

		// The client sends aliases; translate back before updating.
		resolved := make([]string, 0, len(req.CalendarIDs))
		for _, id := range req.CalendarIDs {
			resolved = append(resolved, sess.Aliases().ResolveCalendar(id))
		}

		visible, err := s.visibility.UpdateVisibleCalendars(r.Context(), sess.Google, sess, resolved)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"calendars": sess.Aliases().MaskCalendars(visible),
		})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCalendarsRefresh(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if sess.Google == nil {
		writeError(w, koyomiErrors.NotConnected("Google is not connected"))
		return
	}

	available, err := s.visibility.RefreshCalendars(r.Context(), sess.Google, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"calendars": sess.Aliases().MaskCalendars(available),
	})
}

type scheduleReminderRequest struct {
	Text        string `json:"text"`
	TriggerType string `json:"trigger_type"`
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	owner := sess.OwnerKey(sessionID)

	switch r.Method {
	case http.MethodGet:
		reminders := s.reminders.List(owner)
		if reminders == nil {
			reminders = []*reminder.Reminder{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"reminders": reminders,
		})
	case http.MethodPost:
		var req scheduleReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, koyomiErrors.InvalidInput("invalid request body"))
			return
		}
		created, err := s.reminders.Schedule(owner, req.Text, req.TriggerType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"reminder": created,
		})
	default:
		methodNotAllowed(w)
	}
}

type triggerRequest struct {
	TriggerType string `json:"trigger_type"`
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, koyomiErrors.InvalidInput("invalid request body"))
		return
	}

	owner := sess.OwnerKey(sessionID)
	triggerType, fired, err := s.reminders.Fire(r.Context(), owner, req.TriggerType, sess.Google, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	if fired == nil {
		fired = []*reminder.Reminder{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trigger_type": triggerType,
		"reminders":    fired,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	s.sessions.Clear(sessionID)
	s.setSessionCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) handleAuthSession(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":   userPayload(sess.User),
		"google": googlePayload(sess.Google),
	})
}

type loginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, koyomiErrors.InvalidInput("invalid request body"))
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		writeError(w, koyomiErrors.InvalidInput("email is required"))
		return
	}

	user := sess.Login(email, strings.TrimSpace(req.Name))
	// A new identity must not inherit aliases issued to the previous one.
	s.sessions.ResetAliases(sessionID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": userPayload(user),
	})
}

func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	sess.Logout()
	sess.Disconnect()
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func userPayload(user *session.UserProfile) interface{} {
	if user == nil {
		return nil
	}
	return map[string]string{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	}
}

func googlePayload(conn *google.Connection) map[string]interface{} {
	payload := map[string]interface{}{"connected": conn != nil}
	if conn == nil {
		return payload
	}
	payload["email"] = conn.Email
	if conn.Token != nil && !conn.Token.Expiry.IsZero() {
		payload["expires_at"] = conn.Token.Expiry.Format(time.RFC3339)
	}
	return payload
}

func (s *Server) handleAuthStart(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if !s.google.Configured() {
		writeError(w, koyomiErrors.Upstream("Google OAuth is not configured"))
		return
	}

	nonce := uuid.NewString()
	authURL, err := s.google.AuthURL(nonce)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.OAuthState = nonce
	s.sessions.RememberState(nonce, sessionID)

	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleAuthCallback runs outside the session lock wrapper: the session
// is recovered from the state nonce, not the cookie, because some
// browsers drop cookies across the consent redirect.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	query := r.URL.Query()
	code := query.Get("code")
	nonce := query.Get("state")
	if code == "" || nonce == "" {
		writeError(w, koyomiErrors.InvalidInput("missing code or state"))
		return
	}

	sessionID := s.sessions.ConsumeState(nonce)
	if sessionID == "" {
		writeError(w, koyomiErrors.InvalidInput("unknown or expired state"))
		return
	}
	sess, ok := s.sessions.Get(sessionID)
	if !ok || sess.OAuthState != nonce {
		writeError(w, koyomiErrors.InvalidInput("unknown or expired state"))
		return
	}

	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	conn, err := s.google.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.Connect(conn)
	s.setSessionCookie(w, sessionID, 0)

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleAuthDisconnect(w http.ResponseWriter, r *http.Request, sessionID string, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	sess.Disconnect()
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
