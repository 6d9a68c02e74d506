package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/app-bouncer/internal/application"
	"github.com/example/app-bouncer/internal/persistence"
)

// mapStoreError translates persistence errors into the application taxonomy.
// A constraint violation on append means the referenced user does not exist.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	default:
		return err
	}
}

func mapAppendError(err error) error {
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fmt.Errorf("%w: unknown user: %w", application.ErrNotFound, err)
	}
	return mapStoreError(err)
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User) error {
	return mapStoreError(a.repo.CreateUser(ctx, persistence.User{
		ID:      user.ID,
		Name:    user.Name,
		Surname: user.Surname,
		Joined:  user.Joined,
	}))
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return application.User{
		ID:      stored.ID,
		Name:    stored.Name,
		Surname: stored.Surname,
		Joined:  stored.Joined,
	}, nil
}

type preferenceRepositoryAdapter struct {
	repo persistence.PreferenceRepository
}

func newPreferenceRepositoryAdapter(repo persistence.PreferenceRepository) *preferenceRepositoryAdapter {
	return &preferenceRepositoryAdapter{repo: repo}
}

func (a *preferenceRepositoryAdapter) AppendPreference(ctx context.Context, pref application.Preference) error {
	return mapAppendError(a.repo.AppendPreference(ctx, persistence.Preference{
		UserID:               pref.UserID,
		DateTime:             pref.DateTime,
		Preference:           pref.Text,
		PreferredPersonality: pref.PreferredPersonality,
		SelectedApps:         cloneStrings(pref.SelectedApps),
		TimeFactors:          factorsToStore(pref.Factors),
	}))
}

func (a *preferenceRepositoryAdapter) LatestPreference(ctx context.Context, userID string) (application.Preference, error) {
	stored, err := a.repo.LatestPreference(ctx, userID)
	if err != nil {
		return application.Preference{}, mapStoreError(err)
	}
	return application.Preference{
		UserID:               stored.UserID,
		DateTime:             stored.DateTime,
		Text:                 stored.Preference,
		PreferredPersonality: stored.PreferredPersonality,
		SelectedApps:         cloneStrings(stored.SelectedApps),
		Factors:              factorsFromStore(stored.TimeFactors),
	}, nil
}

type logRepositoryAdapter struct {
	repo persistence.LogRepository
}

func newLogRepositoryAdapter(repo persistence.LogRepository) *logRepositoryAdapter {
	return &logRepositoryAdapter{repo: repo}
}

func (a *logRepositoryAdapter) AppendLogEntry(ctx context.Context, entry application.LogEntry) error {
	return mapAppendError(a.repo.AppendLogEntry(ctx, persistence.LogEntry{
		UserID:   entry.UserID,
		Query:    entry.Query,
		Answer:   entry.Answer,
		DateTime: entry.DateTime,
	}))
}

func (a *logRepositoryAdapter) ListLogEntries(ctx context.Context, userID string, from, to time.Time) ([]application.LogEntry, error) {
	stored, err := a.repo.ListLogEntries(ctx, userID, from, to)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if len(stored) == 0 {
		return nil, nil
	}
	entries := make([]application.LogEntry, 0, len(stored))
	for _, e := range stored {
		entries = append(entries, toApplicationLogEntry(e))
	}
	return entries, nil
}

func (a *logRepositoryAdapter) LatestLogEntry(ctx context.Context, userID string) (application.LogEntry, error) {
	stored, err := a.repo.LatestLogEntry(ctx, userID)
	if err != nil {
		return application.LogEntry{}, mapStoreError(err)
	}
	return toApplicationLogEntry(stored), nil
}

func (a *logRepositoryAdapter) CountLogEntries(ctx context.Context, userID string, from, to time.Time) (int, error) {
	n, err := a.repo.CountLogEntries(ctx, userID, from, to)
	return n, mapStoreError(err)
}

func (a *logRepositoryAdapter) DeleteLogEntries(ctx context.Context, userID string) (int64, error) {
	n, err := a.repo.DeleteLogEntries(ctx, userID)
	return n, mapStoreError(err)
}

func toApplicationLogEntry(e persistence.LogEntry) application.LogEntry {
	return application.LogEntry{
		UserID:   e.UserID,
		Query:    e.Query,
		Answer:   e.Answer,
		DateTime: e.DateTime,
	}
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func factorsToStore(f *application.TimeFactors) []int {
	if f == nil {
		return nil
	}
	return []int{f.Morning, f.Worktime, f.Evening, f.BeforeBed}
}

func factorsFromStore(values []int) *application.TimeFactors {
	if len(values) != 4 {
		return nil
	}
	return &application.TimeFactors{
		Morning:   values[0],
		Worktime:  values[1],
		Evening:   values[2],
		BeforeBed: values[3],
	}
}
