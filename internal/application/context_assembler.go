package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultHistoryWindowHours bounds the history fed into each decision.
const DefaultHistoryWindowHours = 24

// DecisionContext is the bounded bundle handed to the oracle for one request.
// Absent data is carried as sentinel text, never as empty fields.
type DecisionContext struct {
	UserID         string
	Name           string
	Now            time.Time
	TimeOfDay      string
	Personality    Personality
	PreferenceText string
	UsageText      string
	HistoryText    string
	RequestsToday  int
}

// Render serializes the context into the text block sent to the oracle.
func (c DecisionContext) Render() string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	fmt.Fprintf(&b, "Current time: %s\n", c.TimeOfDay)
	fmt.Fprintf(&b, "The user's name is: %s\n\n", c.Name)
	b.WriteString("USER PREFERENCES:\n")
	b.WriteString(strings.TrimSpace(c.PreferenceText))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "REQUESTS TODAY: %d\n\n", c.RequestsToday)
	b.WriteString("RECENT REQUESTS:\n")
	b.WriteString(strings.TrimSpace(c.HistoryText))
	b.WriteString("\n\n")
	b.WriteString("APP USAGE TODAY:\n")
	b.WriteString(c.UsageText)
	b.WriteString("\n")
	return b.String()
}

// ContextAssembler gathers everything one decision needs.
type ContextAssembler struct {
	users       UserRepository
	prefs       PreferenceRepository
	log         *RequestLog
	now         func() time.Time
	windowHours int
	logger      *slog.Logger
}

// NewContextAssembler constructs an assembler. A non-positive windowHours
// falls back to DefaultHistoryWindowHours.
func NewContextAssembler(users UserRepository, prefs PreferenceRepository, log *RequestLog, now func() time.Time, windowHours int) *ContextAssembler {
	return NewContextAssemblerWithLogger(users, prefs, log, now, windowHours, nil)
}

// NewContextAssemblerWithLogger constructs an assembler with a specified logger.
func NewContextAssemblerWithLogger(users UserRepository, prefs PreferenceRepository, log *RequestLog, now func() time.Time, windowHours int, logger *slog.Logger) *ContextAssembler {
	if now == nil {
		now = time.Now
	}
	if windowHours <= 0 {
		windowHours = DefaultHistoryWindowHours
	}
	return &ContextAssembler{users: users, prefs: prefs, log: log, now: now, windowHours: windowHours, logger: defaultLogger(logger)}
}

// Assemble builds the decision context for userID. The store reads run
// concurrently; when several fail, the error of the earliest step wins
// (identity, preference, personality, history, request count).
func (a *ContextAssembler) Assemble(ctx context.Context, userID string, usage []UsageSample) (DecisionContext, error) {
	if a == nil {
		return DecisionContext{}, fmt.Errorf("ContextAssembler is nil")
	}

	logger := serviceLogger(ctx, a.logger, "ContextAssembler", "Assemble", "user_id", userID)

	var (
		user     User
		pref     Preference
		history  string
		count    int
		userErr  error
		prefErr  error
		histErr  error
		countErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, userErr = a.users.GetUser(gctx, userID)
		if userErr != nil {
			userErr = fmt.Errorf("resolve user %s: %w", userID, userErr)
		}
		return userErr
	})
	g.Go(func() error {
		pref, prefErr = a.prefs.LatestPreference(gctx, userID)
		if prefErr != nil {
			prefErr = fmt.Errorf("resolve preference for %s: %w", userID, prefErr)
		}
		return prefErr
	})
	g.Go(func() error {
		history, histErr = a.log.RenderWindow(gctx, userID, a.windowHours)
		if histErr != nil {
			histErr = fmt.Errorf("render history for %s: %w", userID, histErr)
		}
		return histErr
	})
	g.Go(func() error {
		count, countErr = a.log.CountToday(gctx, userID)
		if countErr != nil {
			countErr = fmt.Errorf("count requests for %s: %w", userID, countErr)
		}
		return countErr
	})
	waitErr := g.Wait()

	var personality Personality
	var personalityErr error
	if prefErr == nil {
		personality, personalityErr = ParsePersonality(pref.PreferredPersonality)
	}

	for _, err := range []error{userErr, prefErr, personalityErr, histErr, countErr} {
		if err == nil {
			continue
		}
		// A sibling failure cancels gctx; report the failure that caused it.
		if ctx.Err() == nil && errors.Is(err, context.Canceled) {
			continue
		}
		logger.DebugContext(ctx, "context assembly failed", "error", err, "error_kind", ErrorKind(err))
		return DecisionContext{}, err
	}
	if waitErr != nil {
		return DecisionContext{}, waitErr
	}

	now := a.now()
	dc := DecisionContext{
		UserID:         userID,
		Name:           user.Name,
		Now:            now,
		TimeOfDay:      describeTimeOfDay(now),
		Personality:    personality,
		PreferenceText: pref.Text,
		UsageText:      NormalizeUsage(usage, pref.SelectedApps),
		HistoryText:    history,
		RequestsToday:  count,
	}
	logger.DebugContext(ctx, "context assembled", "requests_today", count, "personality", personality.String())
	return dc, nil
}

func describeTimeOfDay(t time.Time) string {
	var period string
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		period = "morning"
	case h >= 12 && h < 17:
		period = "afternoon"
	case h >= 17 && h < 22:
		period = "evening"
	default:
		period = "night"
	}
	return fmt.Sprintf("%s, %s (%s)", t.Format("Monday 2 January 2006"), t.Format("15:04"), period)
}
