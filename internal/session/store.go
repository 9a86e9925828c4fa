package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type stateEntry struct {
	sessionID string
	expiresAt time.Time
}

// Store is the in-memory session registry keyed by the cookie session
// token. It also tracks OAuth state nonces so a callback can find its
// session even when the browser drops the cookie mid-flow.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	stateIndex map[string]stateEntry
	stateTTL   time.Duration
	now        func() time.Time
}

func NewStore(stateTTL time.Duration) *Store {
	if stateTTL <= 0 {
		stateTTL = 15 * time.Minute
	}
	return &Store{
		sessions:   make(map[string]*Session),
		stateIndex: make(map[string]stateEntry),
		stateTTL:   stateTTL,
		now:        time.Now,
	}
}

// Ensure returns the session for id, creating a fresh one (with a new
// token when id is empty) on first sight.
func (s *Store) Ensure(id string) (string, *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if existing, ok := s.sessions[id]; ok {
			return id, existing
		}
	}

	if id == "" {
		id = uuid.NewString()
	}
	created := New()
	s.sessions[id] = created
	return id, created
}

// Get returns the session for id without creating one.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// ResetAliases clears the alias table of an existing session.
func (s *Store) ResetAliases(id string) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.AliasTable.Reset()
	}
}

// Clear destroys a session entirely.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// RememberState maps an OAuth state nonce back to its session id.
func (s *Store) RememberState(state, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateIndex[state] = stateEntry{
		sessionID: sessionID,
		expiresAt: s.now().Add(s.stateTTL),
	}
}

// ConsumeState resolves and removes a state nonce; expired entries
// resolve to "".
func (s *Store) ConsumeState(state string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.stateIndex[state]
	if !ok {
		return ""
	}
	delete(s.stateIndex, state)
	if entry.expiresAt.Before(s.now()) {
		return ""
	}
	return entry.sessionID
}

// PruneStates drops expired OAuth state entries and reports how many
// were removed.
func (s *Store) PruneStates() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for state, entry := range s.stateIndex {
		if entry.expiresAt.Before(now) {
			delete(s.stateIndex, state)
			count++
		}
	}
	return count
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
