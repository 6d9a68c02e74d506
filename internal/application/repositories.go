package application

import (
	"context"
	"time"
)

// UserRepository captures the identity operations needed by the services.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
}

// PreferenceRepository captures versioned preference storage.
type PreferenceRepository interface {
	AppendPreference(ctx context.Context, pref Preference) error
	LatestPreference(ctx context.Context, userID string) (Preference, error)
}

// LogRepository captures the append-only request log.
type LogRepository interface {
	AppendLogEntry(ctx context.Context, entry LogEntry) error
	ListLogEntries(ctx context.Context, userID string, from, to time.Time) ([]LogEntry, error)
	LatestLogEntry(ctx context.Context, userID string) (LogEntry, error)
	CountLogEntries(ctx context.Context, userID string, from, to time.Time) (int, error)
	DeleteLogEntries(ctx context.Context, userID string) (int64, error)
}
