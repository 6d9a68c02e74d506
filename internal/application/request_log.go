package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	emptyLogPrefix = "Empty log - "
	// EmptyLatestSentinel is rendered when a user has no log entries at all.
	EmptyLatestSentinel = emptyLogPrefix + "The user has not asked for anything yet"

	logTimeLayout = "2006-01-02 15:04:05"
)

// EmptyWindowSentinel is rendered when no entries fall inside the window.
func EmptyWindowSentinel(hours int) string {
	return fmt.Sprintf("%sThe user has not asked for anything in the last %d hours", emptyLogPrefix, hours)
}

// RequestLog is the read and write model over decided requests.
type RequestLog struct {
	logs   LogRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewRequestLog constructs a request log over the repository.
func NewRequestLog(logs LogRepository, now func() time.Time) *RequestLog {
	return NewRequestLogWithLogger(logs, now, nil)
}

// NewRequestLogWithLogger constructs a request log with a specified logger.
func NewRequestLogWithLogger(logs LogRepository, now func() time.Time, logger *slog.Logger) *RequestLog {
	if now == nil {
		now = time.Now
	}
	return &RequestLog{logs: logs, now: now, logger: defaultLogger(logger)}
}

func (l *RequestLog) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, l.logger, "RequestLog", operation, attrs...)
}

// Append records a verdict for query at the current time, truncated to the second.
func (l *RequestLog) Append(ctx context.Context, userID, query string, verdict Verdict) (LogEntry, error) {
	answer, err := json.Marshal(verdict)
	if err != nil {
		return LogEntry{}, fmt.Errorf("encode verdict: %w", err)
	}

	entry := LogEntry{
		UserID:   userID,
		Query:    query,
		Answer:   string(answer),
		DateTime: l.now().Truncate(time.Second),
	}
	if err := l.logs.AppendLogEntry(ctx, entry); err != nil {
		return LogEntry{}, err
	}
	return entry, nil
}

// Window returns the entries with date_time in [now-hours, now], oldest first.
func (l *RequestLog) Window(ctx context.Context, userID string, hours int) ([]LogEntry, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("%w: window hours must be positive, got %d", ErrInvalidArgument, hours)
	}

	now := l.now()
	lower := now.Add(-time.Duration(hours) * time.Hour)
	from := lower.Truncate(time.Second)
	if from.Before(lower) {
		from = from.Add(time.Second)
	}
	to := now.Truncate(time.Second)

	return l.logs.ListLogEntries(ctx, userID, from, to)
}

// RenderWindow renders Window as a CSV table with a header row, or the
// empty-window sentinel.
func (l *RequestLog) RenderWindow(ctx context.Context, userID string, hours int) (string, error) {
	entries, err := l.Window(ctx, userID, hours)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return EmptyWindowSentinel(hours), nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"user_id", "query", "answer", "date_time"})
	for _, e := range entries {
		_ = w.Write([]string{e.UserID, e.Query, e.Answer, l.formatTime(e.DateTime)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("render log window: %w", err)
	}
	return buf.String(), nil
}

// Latest returns the most recent entry or ErrNotFound.
func (l *RequestLog) Latest(ctx context.Context, userID string) (LogEntry, error) {
	return l.logs.LatestLogEntry(ctx, userID)
}

// RenderLatest renders the most recent entry as a JSON object, or the empty
// sentinel when the user has no entries.
func (l *RequestLog) RenderLatest(ctx context.Context, userID string) (string, error) {
	entry, err := l.Latest(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return EmptyLatestSentinel, nil
	}
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(struct {
		UserID   string          `json:"user_id"`
		Query    string          `json:"query"`
		Answer   json.RawMessage `json:"answer"`
		DateTime string          `json:"date_time"`
	}{entry.UserID, entry.Query, rawAnswer(entry.Answer), l.formatTime(entry.DateTime)})
	if err != nil {
		return "", fmt.Errorf("render latest entry: %w", err)
	}
	return string(payload), nil
}

// CountToday counts entries on the current calendar day in the clock's location.
func (l *RequestLog) CountToday(ctx context.Context, userID string) (int, error) {
	now := l.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return l.logs.CountLogEntries(ctx, userID, start, start.AddDate(0, 0, 1))
}

// Purge irreversibly removes every entry of the user.
func (l *RequestLog) Purge(ctx context.Context, userID string) (removed int64, err error) {
	logger := l.loggerWith(ctx, "Purge", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to purge request log", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "request log purged", "removed", removed)
	}()

	removed, err = l.logs.DeleteLogEntries(ctx, userID)
	return
}

func (l *RequestLog) formatTime(t time.Time) string {
	return t.In(l.now().Location()).Format(logTimeLayout)
}

func rawAnswer(answer string) json.RawMessage {
	if json.Valid([]byte(answer)) {
		return json.RawMessage(answer)
	}
	quoted, _ := json.Marshal(answer)
	return quoted
}
