package reminder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
)

// LockConfig bounds the file-lock acquisition at store construction.
type LockConfig struct {
	LockTimeout  time.Duration
	LockRetry    time.Duration
	LockMaxRetry int
}

func DefaultLockConfig() LockConfig {
	return LockConfig{
		LockTimeout:  5 * time.Second,
		LockRetry:    100 * time.Millisecond,
		LockMaxRetry: 50,
	}
}

type storeFile struct {
	Owners map[string][]*Reminder `json:"owners"`
}

// Store persists reminders grouped by owner key in a single JSON file.
// Every mutation rewrites the whole file through an atomic rename, so a
// crash mid-write never leaves a torn store. A flock on <path>.lock
// keeps a second process from sharing the file.
type Store struct {
	path     string
	fileLock *flock.Flock
	mu       sync.Mutex
	data     map[string][]*Reminder
}

func NewStore(path string, cfg LockConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create reminder store dir: %w", err)
	}

	fileLock := flock.New(path + ".lock")
	if err := acquireWithRetry(fileLock, cfg); err != nil {
		return nil, err
	}

	s := &Store{
		path:     path,
		fileLock: fileLock,
		data:     make(map[string][]*Reminder),
	}
	s.load()
	return s, nil
}

func acquireWithRetry(fileLock *flock.Flock, cfg LockConfig) error {
	deadline := time.Now().Add(cfg.LockTimeout)
	for i := 0; i < cfg.LockMaxRetry; i++ {
		locked, err := fileLock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to attempt lock: %w", err)
		}
		if locked {
			return nil
		}
		if time.Now().After(deadline) {
			break
		}
		if i < cfg.LockMaxRetry-1 {
			time.Sleep(cfg.LockRetry)
		}
	}
	return fmt.Errorf("reminder store %s is locked by another instance (timeout after %v)",
		fileLock.Path(), cfg.LockTimeout)
}

// load reads the store file, tolerating a missing or corrupt file by
// starting empty. Records that do not decode are dropped individually.
func (s *Store) load() {
	content, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		slog.Warn("Reminder store unreadable, starting empty", "path", s.path, "error", err)
		return
	}
	if len(content) == 0 {
		return
	}

	var payload storeFile
	if err := json.Unmarshal(content, &payload); err != nil {
		slog.Warn("Reminder store corrupt, starting empty", "path", s.path, "error", err)
		return
	}

	for owner, items := range payload.Owners {
		if owner == "" {
			continue
		}
		parsed := make([]*Reminder, 0, len(items))
		for _, item := range items {
			if item == nil || item.ID == "" {
				continue
			}
			if item.Status == "" {
				item.Status = StatusPending
			}
			parsed = append(parsed, item)
		}
		if len(parsed) > 0 {
			s.data[owner] = parsed
		}
	}
}

func (s *Store) save() error {
	// Internal save, lock held by caller
	payload := storeFile{Owners: s.data}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.path, bytes.NewReader(b))
}

// All returns independent copies of the owner's reminders.
func (s *Store) All(owner string) []*Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders := make([]*Reminder, 0, len(s.data[owner]))
	for _, r := range s.data[owner] {
		reminders = append(reminders, r.Clone())
	}
	return reminders
}

// Append adds a reminder for owner and persists.
func (s *Store) Append(owner string, r *Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[owner] = append(s.data[owner], r)
	return s.save()
}

// Mutate runs fn against the owner's live slice under the store lock
// and persists afterwards, even when fn reports an error.
func (s *Store) Mutate(owner string, fn func(reminders []*Reminder) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[owner]; !ok {
		s.data[owner] = []*Reminder{}
	}
	fnErr := fn(s.data[owner])
	if err := s.save(); err != nil {
		return err
	}
	return fnErr
}

// Close releases the file lock.
func (s *Store) Close() {
	if s.fileLock != nil {
		if err := s.fileLock.Unlock(); err != nil {
			slog.Error("Failed to release reminder store lock", "path", s.path, "error", err)
		}
		s.fileLock = nil
	}
}
