// Package memory provides an in-process persistence.Store used by tests and
// by deployments configured with storage=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/app-bouncer/internal/persistence"
)

type preferenceRecord struct {
	seq  int64
	pref persistence.Preference
}

type logRecord struct {
	seq   int64
	entry persistence.LogEntry
}

// Storage keeps every table in maps guarded by a single RWMutex.
type Storage struct {
	mu          sync.RWMutex
	seq         int64
	users       map[string]persistence.User
	preferences map[string][]preferenceRecord
	logs        map[string][]logRecord
}

var _ persistence.Store = (*Storage)(nil)

// Open returns an empty Storage.
func Open() *Storage {
	return &Storage{
		users:       make(map[string]persistence.User),
		preferences: make(map[string][]preferenceRecord),
		logs:        make(map[string][]logRecord),
	}
}

// Close is a no-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// Migrate is a no-op for the in-memory implementation.
func (s *Storage) Migrate(context.Context) error {
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("memory: user %s already exists: %w", user.ID, persistence.ErrConstraintViolation)
	}

	user.Joined = normalize(user.Joined)
	s.users[user.ID] = user
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// --- PreferenceRepository implementation ---

// AppendPreference stores a new preference version for an existing user.
func (s *Storage) AppendPreference(ctx context.Context, pref persistence.Preference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[pref.UserID]; !ok {
		return fmt.Errorf("memory: preference for unknown user %s: %w", pref.UserID, persistence.ErrConstraintViolation)
	}

	s.seq++
	pref.DateTime = normalize(pref.DateTime)
	pref.SelectedApps = cloneStrings(pref.SelectedApps)
	pref.TimeFactors = cloneInts(pref.TimeFactors)
	s.preferences[pref.UserID] = append(s.preferences[pref.UserID], preferenceRecord{seq: s.seq, pref: pref})
	return nil
}

// LatestPreference returns the preference with the greatest DateTime, the
// most recently inserted one winning ties.
func (s *Storage) LatestPreference(ctx context.Context, userID string) (persistence.Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.preferences[userID]
	if len(records) == 0 {
		return persistence.Preference{}, persistence.ErrNotFound
	}

	best := records[0]
	for _, rec := range records[1:] {
		if rec.pref.DateTime.After(best.pref.DateTime) ||
			(rec.pref.DateTime.Equal(best.pref.DateTime) && rec.seq > best.seq) {
			best = rec
		}
	}

	pref := best.pref
	pref.SelectedApps = cloneStrings(pref.SelectedApps)
	pref.TimeFactors = cloneInts(pref.TimeFactors)
	return pref, nil
}

// --- LogRepository implementation ---

// AppendLogEntry stores a decided request.
func (s *Storage) AppendLogEntry(ctx context.Context, entry persistence.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[entry.UserID]; !ok {
		return fmt.Errorf("memory: log entry for unknown user %s: %w", entry.UserID, persistence.ErrConstraintViolation)
	}

	s.seq++
	entry.DateTime = normalize(entry.DateTime)
	s.logs[entry.UserID] = append(s.logs[entry.UserID], logRecord{seq: s.seq, entry: entry})
	return nil
}

// ListLogEntries returns the entries inside the closed range [from, to].
func (s *Storage) ListLogEntries(ctx context.Context, userID string, from, to time.Time) ([]persistence.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.sortedLogsLocked(userID)
	entries := make([]persistence.LogEntry, 0, len(records))
	for _, rec := range records {
		if rec.entry.DateTime.Before(from) || rec.entry.DateTime.After(to) {
			continue
		}
		entries = append(entries, rec.entry)
	}
	return entries, nil
}

// LatestLogEntry returns the most recent entry of the user.
func (s *Storage) LatestLogEntry(ctx context.Context, userID string) (persistence.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.sortedLogsLocked(userID)
	if len(records) == 0 {
		return persistence.LogEntry{}, persistence.ErrNotFound
	}
	return records[len(records)-1].entry, nil
}

// CountLogEntries counts entries inside the half-open range [from, to).
func (s *Storage) CountLogEntries(ctx context.Context, userID string, from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.logs[userID] {
		if !rec.entry.DateTime.Before(from) && rec.entry.DateTime.Before(to) {
			count++
		}
	}
	return count, nil
}

// DeleteLogEntries removes the user's whole request log.
func (s *Storage) DeleteLogEntries(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := int64(len(s.logs[userID]))
	delete(s.logs, userID)
	return removed, nil
}

func (s *Storage) sortedLogsLocked(userID string) []logRecord {
	records := append([]logRecord(nil), s.logs[userID]...)
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].entry.DateTime.Equal(records[j].entry.DateTime) {
			return records[i].seq < records[j].seq
		}
		return records[i].entry.DateTime.Before(records[j].entry.DateTime)
	})
	return records
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}
