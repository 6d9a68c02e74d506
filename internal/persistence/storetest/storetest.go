// Package storetest holds the behavioural checks every persistence.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/app-bouncer/internal/persistence"
)

// Run executes the suite against stores produced by open. Each subtest gets
// a fresh, migrated store.
func Run(t *testing.T, open func(t *testing.T) persistence.Store) {
	t.Helper()

	t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("PreferencesLatestWins", func(t *testing.T) { testPreferences(t, open(t)) })
	t.Run("PreferenceRequiresUser", func(t *testing.T) { testPreferenceRequiresUser(t, open(t)) })
	t.Run("LogWindow", func(t *testing.T) { testLogWindow(t, open(t)) })
	t.Run("LogCountAndLatest", func(t *testing.T) { testLogCountAndLatest(t, open(t)) })
	t.Run("LogPurgeIsolated", func(t *testing.T) { testLogPurge(t, open(t)) })
}

var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, store persistence.Store, id string) {
	t.Helper()
	user := persistence.User{ID: id, Name: "Tim", Surname: "Apple", Joined: base}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", id, err)
	}
}

func testUsers(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedUser(t, store, "user-1")

	got, err := store.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	want := persistence.User{ID: "user-1", Name: "Tim", Surname: "Apple", Joined: base}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("GetUser mismatch (-want +got):\n%s", diff)
	}

	if err := store.CreateUser(ctx, want); err == nil {
		t.Fatal("expected duplicate user to be rejected")
	}

	if _, err := store.GetUser(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testPreferences(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedUser(t, store, "user-1")

	if _, err := store.LatestPreference(ctx, "user-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any preference, got %v", err)
	}

	prefs := []persistence.Preference{
		{UserID: "user-1", DateTime: base, Preference: "first", PreferredPersonality: "chill", SelectedApps: []string{"TikTok"}},
		{UserID: "user-1", DateTime: base.Add(time.Hour), Preference: "second", PreferredPersonality: "strict", SelectedApps: []string{"TikTok", "Instagram"}, TimeFactors: []int{2, 5, 8, 10}},
		{UserID: "user-1", DateTime: base.Add(30 * time.Minute), Preference: "older", PreferredPersonality: "chill"},
	}
	for _, p := range prefs {
		if err := store.AppendPreference(ctx, p); err != nil {
			t.Fatalf("AppendPreference failed: %v", err)
		}
	}

	got, err := store.LatestPreference(ctx, "user-1")
	if err != nil {
		t.Fatalf("LatestPreference failed: %v", err)
	}
	if diff := cmp.Diff(prefs[1], got); diff != "" {
		t.Fatalf("LatestPreference mismatch (-want +got):\n%s", diff)
	}

	again, err := store.LatestPreference(ctx, "user-1")
	if err != nil {
		t.Fatalf("LatestPreference failed: %v", err)
	}
	if diff := cmp.Diff(got, again); diff != "" {
		t.Fatalf("LatestPreference not stable (-first +second):\n%s", diff)
	}

	tie := persistence.Preference{UserID: "user-1", DateTime: base.Add(time.Hour), Preference: "tie", PreferredPersonality: "supportive"}
	if err := store.AppendPreference(ctx, tie); err != nil {
		t.Fatalf("AppendPreference failed: %v", err)
	}
	got, err = store.LatestPreference(ctx, "user-1")
	if err != nil {
		t.Fatalf("LatestPreference failed: %v", err)
	}
	if got.Preference != "tie" {
		t.Fatalf("expected later insert to win a timestamp tie, got %q", got.Preference)
	}
	if got.TimeFactors != nil {
		t.Fatalf("expected no time factors on a version stored without them, got %v", got.TimeFactors)
	}
}

func testPreferenceRequiresUser(t *testing.T, store persistence.Store) {
	err := store.AppendPreference(context.Background(), persistence.Preference{UserID: "ghost", DateTime: base, Preference: "x", PreferredPersonality: "chill"})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func testLogWindow(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedUser(t, store, "user-1")

	offsets := []time.Duration{-25 * time.Hour, -24 * time.Hour, -2 * time.Hour, 0, time.Hour}
	for i, off := range offsets {
		entry := persistence.LogEntry{UserID: "user-1", Query: string(rune('a' + i)), Answer: `{"allow":true,"minutes":5,"reply":"ok"}`, DateTime: base.Add(off)}
		if err := store.AppendLogEntry(ctx, entry); err != nil {
			t.Fatalf("AppendLogEntry failed: %v", err)
		}
	}

	entries, err := store.ListLogEntries(ctx, "user-1", base.Add(-24*time.Hour), base)
	if err != nil {
		t.Fatalf("ListLogEntries failed: %v", err)
	}
	var queries []string
	for _, e := range entries {
		queries = append(queries, e.Query)
	}
	if diff := cmp.Diff([]string{"b", "c", "d"}, queries); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}

	empty, err := store.ListLogEntries(ctx, "user-2", base.Add(-24*time.Hour), base)
	if err != nil {
		t.Fatalf("ListLogEntries for unknown user failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no entries for unknown user, got %d", len(empty))
	}
}

func testLogCountAndLatest(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedUser(t, store, "user-1")

	if _, err := store.LatestLogEntry(ctx, "user-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty log, got %v", err)
	}

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	stamps := []time.Time{day.Add(-time.Second), day, day.Add(8 * time.Hour), day.Add(8 * time.Hour), day.Add(24 * time.Hour)}
	for i, ts := range stamps {
		entry := persistence.LogEntry{UserID: "user-1", Query: string(rune('a' + i)), Answer: "{}", DateTime: ts}
		if err := store.AppendLogEntry(ctx, entry); err != nil {
			t.Fatalf("AppendLogEntry failed: %v", err)
		}
	}

	count, err := store.CountLogEntries(ctx, "user-1", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("CountLogEntries failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 entries today, got %d", count)
	}

	latest, err := store.LatestLogEntry(ctx, "user-1")
	if err != nil {
		t.Fatalf("LatestLogEntry failed: %v", err)
	}
	if latest.Query != "e" {
		t.Fatalf("expected latest query e, got %q", latest.Query)
	}
}

func testLogPurge(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedUser(t, store, "user-1")
	seedUser(t, store, "user-2")

	for _, id := range []string{"user-1", "user-1", "user-2"} {
		if err := store.AppendLogEntry(ctx, persistence.LogEntry{UserID: id, Query: "q", Answer: "{}", DateTime: base}); err != nil {
			t.Fatalf("AppendLogEntry failed: %v", err)
		}
	}

	removed, err := store.DeleteLogEntries(ctx, "user-1")
	if err != nil {
		t.Fatalf("DeleteLogEntries failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	if _, err := store.LatestLogEntry(ctx, "user-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected empty log after purge, got %v", err)
	}
	left, err := store.CountLogEntries(ctx, "user-2", base, base.Add(time.Second))
	if err != nil {
		t.Fatalf("CountLogEntries failed: %v", err)
	}
	if left != 1 {
		t.Fatalf("purge touched another user: %d entries left", left)
	}
}
