package persistence

import (
	"context"
	"time"
)

// UserRepository stores identities. Users are immutable once created.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
}

// PreferenceRepository stores versioned preferences. The latest record by
// DateTime is authoritative; equal timestamps resolve to the later insert.
type PreferenceRepository interface {
	AppendPreference(ctx context.Context, pref Preference) error
	LatestPreference(ctx context.Context, userID string) (Preference, error)
}

// LogRepository stores decided requests.
type LogRepository interface {
	AppendLogEntry(ctx context.Context, entry LogEntry) error
	// ListLogEntries returns entries with from <= DateTime <= to in ascending order.
	ListLogEntries(ctx context.Context, userID string, from, to time.Time) ([]LogEntry, error)
	// LatestLogEntry returns the most recent entry or ErrNotFound.
	LatestLogEntry(ctx context.Context, userID string) (LogEntry, error)
	// CountLogEntries counts entries with from <= DateTime < to.
	CountLogEntries(ctx context.Context, userID string, from, to time.Time) (int, error)
	// DeleteLogEntries removes every entry of the user and reports how many were removed.
	DeleteLogEntries(ctx context.Context, userID string) (int64, error)
}

// Store bundles the repositories together with lifecycle hooks.
type Store interface {
	UserRepository
	PreferenceRepository
	LogRepository
	Migrate(ctx context.Context) error
	Close() error
}
