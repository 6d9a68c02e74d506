package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLog_AppendTruncatesToSeconds(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{now: testNow.Add(750 * time.Millisecond)}
	logs := &logRepoStub{}
	log := NewRequestLog(logs, clock.Now)

	entry, err := log.Append(context.Background(), "u1", "can I open tiktok", Verdict{Allow: true, Minutes: 5, Reply: "ok"})
	require.NoError(t, err)
	assert.True(t, entry.DateTime.Equal(testNow), "got %v", entry.DateTime)

	var v Verdict
	require.NoError(t, json.Unmarshal([]byte(entry.Answer), &v))
	assert.Equal(t, Verdict{Allow: true, Minutes: 5, Reply: "ok"}, v)
	assert.Len(t, logs.snapshot(), 1)
}

func TestRequestLog_Window(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{now: testNow.Add(400 * time.Millisecond)}
	logs := &logRepoStub{entries: []LogEntry{
		{UserID: "u1", Query: "too old", DateTime: testNow.Add(-24*time.Hour - time.Second)},
		{UserID: "u1", Query: "edge", DateTime: testNow.Add(-24 * time.Hour).Add(time.Second)},
		{UserID: "u1", Query: "recent", DateTime: testNow.Add(-time.Hour)},
		{UserID: "u1", Query: "now", DateTime: testNow},
		{UserID: "u2", Query: "other user", DateTime: testNow},
	}}
	log := NewRequestLog(logs, clock.Now)

	entries, err := log.Window(context.Background(), "u1", 24)
	require.NoError(t, err)

	var queries []string
	for _, e := range entries {
		queries = append(queries, e.Query)
		assert.Equal(t, "u1", e.UserID)
	}
	assert.Equal(t, []string{"edge", "recent", "now"}, queries)

	for _, h := range []int{0, -3} {
		_, err := log.Window(context.Background(), "u1", h)
		assert.ErrorIs(t, err, ErrInvalidArgument, "hours=%d", h)
		_, err = log.RenderWindow(context.Background(), "u1", h)
		assert.ErrorIs(t, err, ErrInvalidArgument, "hours=%d", h)
	}
}

func TestRequestLog_RenderWindow(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{now: testNow}
	logs := &logRepoStub{}
	log := NewRequestLog(logs, clock.Now)
	ctx := context.Background()

	text, err := log.RenderWindow(ctx, "u1", 24)
	require.NoError(t, err)
	assert.Equal(t, "Empty log - The user has not asked for anything in the last 24 hours", text)

	_, err = log.Append(ctx, "u1", "need to answer, a colleague", Verdict{Allow: true, Minutes: 5, Reply: "go"})
	require.NoError(t, err)

	text, err = log.RenderWindow(ctx, "u1", 24)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "user_id,query,answer,date_time", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `u1,"need to answer, a colleague",`), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], ",2024-03-10 14:30:15"), lines[1])
}

func TestRequestLog_LatestAndCount(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{now: testNow}
	logs := &logRepoStub{}
	log := NewRequestLog(logs, clock.Now)
	ctx := context.Background()

	text, err := log.RenderLatest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, EmptyLatestSentinel, text)

	_, err = log.Latest(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	logs.entries = append(logs.entries,
		LogEntry{UserID: "u1", Query: "yesterday", Answer: `{"allow":false,"minutes":0,"reply":"no"}`, DateTime: testNow.Add(-15 * time.Hour)},
		LogEntry{UserID: "u1", Query: "morning", Answer: `{"allow":true,"minutes":5,"reply":"ok"}`, DateTime: testNow.Add(-5 * time.Hour)},
		LogEntry{UserID: "u1", Query: "latest", Answer: `{"allow":true,"minutes":10,"reply":"ok"}`, DateTime: testNow.Add(-time.Minute)},
	)

	count, err := log.CountToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	text, err = log.RenderLatest(ctx, "u1")
	require.NoError(t, err)
	var rendered struct {
		Query  string  `json:"query"`
		Answer Verdict `json:"answer"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &rendered))
	assert.Equal(t, "latest", rendered.Query)
	assert.Equal(t, 10, rendered.Answer.Minutes)
}

func TestRequestLog_CountTodayUsesClockLocation(t *testing.T) {
	t.Parallel()

	berlin := time.FixedZone("CET", 3600)
	// 00:30 local is still the previous day in UTC.
	clock := &fixedClock{now: time.Date(2024, time.March, 10, 0, 30, 0, 0, berlin)}
	logs := &logRepoStub{entries: []LogEntry{
		{UserID: "u1", DateTime: time.Date(2024, time.March, 9, 23, 10, 0, 0, time.UTC)},
		{UserID: "u1", DateTime: time.Date(2024, time.March, 9, 22, 50, 0, 0, time.UTC)},
	}}
	log := NewRequestLog(logs, clock.Now)

	count, err := log.CountToday(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRequestLog_Purge(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{now: testNow}
	logs := &logRepoStub{}
	log := NewRequestLog(logs, clock.Now)
	ctx := context.Background()

	for _, user := range []string{"u1", "u1", "u2"} {
		_, err := log.Append(ctx, user, "q", Verdict{Reply: "no"})
		require.NoError(t, err)
	}

	removed, err := log.Purge(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	text, err := log.RenderWindow(ctx, "u1", 24)
	require.NoError(t, err)
	assert.Equal(t, EmptyWindowSentinel(24), text)

	count, err := log.CountToday(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	other, err := log.CountToday(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, other)
}

func TestRequestLog_RepositoryErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	log := NewRequestLog(&logRepoStub{listErr: boom, appendErr: boom}, (&fixedClock{now: testNow}).Now)

	_, err := log.RenderWindow(context.Background(), "u1", 24)
	assert.ErrorIs(t, err, boom)
	_, err = log.Append(context.Background(), "u1", "q", Verdict{})
	assert.ErrorIs(t, err, boom)
}
