// Package visibility maintains the per-session calendar caches: which
// calendars the connected account can use at all, and which subset the
// user has chosen to see.
package visibility

import (
	"context"
	"time"

	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/session"
)

// Service caches the account's usable calendars for a short window and
// the user's visible selection for a long one.
type Service struct {
	api          google.CalendarAPI
	listTTL      time.Duration
	selectionTTL time.Duration
	now          func() time.Time
}

func NewService(api google.CalendarAPI, listTTL, selectionTTL time.Duration) *Service {
	if listTTL <= 0 {
		listTTL = 30 * time.Minute
	}
	if selectionTTL <= 0 {
		selectionTTL = 7 * 24 * time.Hour
	}
	return &Service{
		api:          api,
		listTTL:      listTTL,
		selectionTTL: selectionTTL,
		now:          time.Now,
	}
}

// AvailableCalendars returns the cached usable calendars, fetching from
// the upstream when the cache is empty or expired. Calendars the account
// cannot read events from are dropped.
func (s *Service) AvailableCalendars(ctx context.Context, conn *google.Connection, sess *session.Session) ([]google.CalendarView, error) {
	cache := &sess.CalendarCache
	if len(cache.Available) > 0 && cache.AvailableExpiresAt.After(s.now()) {
		return cache.Available, nil
	}

	fetched, err := s.api.ListCalendars(ctx, conn)
	if err != nil {
		return nil, err
	}

	calendars := make([]google.CalendarView, 0, len(fetched))
	for _, calendar := range fetched {
		if !supportsEvents(calendar.AccessRole) {
			continue
		}
		calendar.Readonly = IsReadonlyAccess(calendar.AccessRole)
		calendars = append(calendars, calendar)
	}

	cache.Available = calendars
	cache.AvailableExpiresAt = s.now().Add(s.listTTL)
	return calendars, nil
}

// RefreshCalendars drops the available-calendars cache and refetches.
func (s *Service) RefreshCalendars(ctx context.Context, conn *google.Connection, sess *session.Session) ([]google.CalendarView, error) {
	sess.CalendarCache.Available = nil
	sess.CalendarCache.AvailableExpiresAt = time.Time{}
	return s.AvailableCalendars(ctx, conn, sess)
}

// VisibleCalendars returns the available calendars the user has selected,
// falling back to the primary calendar when no valid selection exists.
func (s *Service) VisibleCalendars(ctx context.Context, conn *google.Connection, sess *session.Session) ([]google.CalendarView, error) {
	available, err := s.AvailableCalendars(ctx, conn, sess)
	if err != nil {
		return nil, err
	}

	visibleIDs := s.visibleCalendarIDs(sess, available)
	visible := make([]google.CalendarView, 0, len(visibleIDs))
	for _, calendar := range available {
		if containsID(visibleIDs, calendar.ID) {
			visible = append(visible, calendar)
		}
	}
	return visible, nil
}

// UpdateVisibleCalendars replaces the selection with the supplied real
// calendar ids, silently dropping ids that are not currently available.
func (s *Service) UpdateVisibleCalendars(ctx context.Context, conn *google.Connection, sess *session.Session, calendarIDs []string) ([]google.CalendarView, error) {
	available, err := s.AvailableCalendars(ctx, conn, sess)
	if err != nil {
		return nil, err
	}

	filtered := make([]string, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		if !availableHasID(available, id) {
			continue
		}
		if containsID(filtered, id) {
			continue
		}
		filtered = append(filtered, id)
	}

	sess.CalendarCache.VisibleIDs = filtered
	sess.CalendarCache.VisibleExpiresAt = s.now().Add(s.selectionTTL)

	return s.VisibleCalendars(ctx, conn, sess)
}

// IsReadonly reports whether the session may write to the calendar.
// A calendar missing from the available set counts as readonly.
func (s *Service) IsReadonly(ctx context.Context, conn *google.Connection, sess *session.Session, calendarID string) (bool, error) {
	available, err := s.AvailableCalendars(ctx, conn, sess)
	if err != nil {
		return true, err
	}
	for _, calendar := range available {
		if calendar.ID == calendarID {
			return IsReadonlyAccess(calendar.AccessRole), nil
		}
	}
	return true, nil
}

// IsReadonlyAccess reports whether the access role forbids writes.
func IsReadonlyAccess(accessRole string) bool {
	return accessRole != "owner" && accessRole != "writer"
}

func supportsEvents(accessRole string) bool {
	switch accessRole {
	case "owner", "writer", "reader":
		return true
	default:
		return false
	}
}

// visibleCalendarIDs validates the cached selection against the current
// available set. A missing, expired or fully stale selection falls back
// to the default, which also restarts the selection TTL.
func (s *Service) visibleCalendarIDs(sess *session.Session, available []google.CalendarView) []string {
	cache := &sess.CalendarCache
	if len(cache.VisibleIDs) > 0 && cache.VisibleExpiresAt.After(s.now()) {
		normalized := make([]string, 0, len(cache.VisibleIDs))
		for _, id := range cache.VisibleIDs {
			if availableHasID(available, id) {
				normalized = append(normalized, id)
			}
		}
		if len(normalized) > 0 {
			return normalized
		}
	}

	defaults := defaultVisibleIDs(available)
	cache.VisibleIDs = defaults
	cache.VisibleExpiresAt = s.now().Add(s.selectionTTL)
	return defaults
}

func defaultVisibleIDs(available []google.CalendarView) []string {
	for _, calendar := range available {
		if calendar.Primary {
			return []string{calendar.ID}
		}
	}
	return []string{}
}

func availableHasID(available []google.CalendarView, id string) bool {
	for _, calendar := range available {
		if calendar.ID == id {
			return true
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
