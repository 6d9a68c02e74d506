package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/example/app-bouncer/internal/application"
)

type decisionsStub struct {
	got     application.DecideParams
	verdict application.Verdict
	err     error
}

func (d *decisionsStub) Decide(_ context.Context, p application.DecideParams) (application.Verdict, error) {
	d.got = p
	return d.verdict, d.err
}

type logStub struct {
	count    int
	entries  []application.LogEntry
	gotHours int
}

func (l *logStub) CountToday(context.Context, string) (int, error) { return l.count, nil }

func (l *logStub) Window(_ context.Context, _ string, hours int) ([]application.LogEntry, error) {
	l.gotHours = hours
	return l.entries, nil
}

type auditsStub struct {
	got application.AuditParams
}

func (a *auditsStub) Audit(_ context.Context, p application.AuditParams) (application.ComplianceVerdict, error) {
	a.got = p
	return application.ComplianceVerdict{OnTrack: false, Verdict: "drifting", Score: 20, Feedback: "f", NextStep: "n"}, nil
}

func newTestServer() (*Server, *decisionsStub, *logStub, *auditsStub) {
	d, l, a := &decisionsStub{}, &logStub{}, &auditsStub{}
	return New(Config{Decisions: d, RequestLog: l, Audits: a}), d, l, a
}

func TestAsk(t *testing.T) {
	s, d, _, _ := newTestServer()
	d.verdict = application.Verdict{Allow: true, Minutes: 5, Reply: "Quickly."}

	_, out, err := s.handleAsk(context.Background(), &mcpsdk.CallToolRequest{}, AskInput{
		UserID: " u1 ",
		Query:  "check a message",
		Usage:  []UsageInput{{PackageName: "com.whatsapp", TotalMinutes: 3, LastUsed: "2024-03-10T10:00:00Z"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != (AskOutput{Allow: true, Minutes: 5, Reply: "Quickly."}) {
		t.Fatalf("unexpected output %+v", out)
	}
	if d.got.UserID != "u1" {
		t.Fatalf("expected trimmed user id, got %q", d.got.UserID)
	}
	if len(d.got.Usage) != 1 || !d.got.Usage[0].LastUsed.Equal(time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected usage %+v", d.got.Usage)
	}
}

func TestAskRejectsBadTimestamp(t *testing.T) {
	s, _, _, _ := newTestServer()

	_, _, err := s.handleAsk(context.Background(), &mcpsdk.CallToolRequest{}, AskInput{
		UserID: "u1",
		Query:  "q",
		Usage:  []UsageInput{{PackageName: "x", LastUsed: "yesterday"}},
	})
	if err == nil || !strings.Contains(err.Error(), "usage[0].last_used") {
		t.Fatalf("expected last_used error, got %v", err)
	}
}

func TestAskMapsErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: fmt.Errorf("x: %w", application.ErrNotFound), want: "unknown user"},
		{err: fmt.Errorf("%w: timeout", application.ErrUpstreamUnavailable), want: "unavailable"},
		{err: &application.LogWriteError{Err: errors.New("disk")}, want: "could not be recorded"},
	}
	for _, tt := range tests {
		s, d, _, _ := newTestServer()
		d.err = tt.err
		_, _, err := s.handleAsk(context.Background(), &mcpsdk.CallToolRequest{}, AskInput{UserID: "u1", Query: "q"})
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("expected %q in error, got %v", tt.want, err)
		}
	}
}

func TestHistoryDefaultsWindowAndDecodesVerdicts(t *testing.T) {
	s, _, l, _ := newTestServer()
	l.entries = []application.LogEntry{
		{UserID: "u1", Query: "q1", Answer: `{"allow":false,"minutes":0,"reply":"no"}`, DateTime: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
	}

	_, out, err := s.handleHistory(context.Background(), &mcpsdk.CallToolRequest{}, HistoryInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.gotHours != application.DefaultHistoryWindowHours || out.WindowHours != application.DefaultHistoryWindowHours {
		t.Fatalf("expected default window, got %d/%d", l.gotHours, out.WindowHours)
	}
	want := HistoryEntry{Query: "q1", Allow: false, Minutes: 0, Reply: "no", DateTime: "2024-03-10T09:00:00Z"}
	if len(out.Entries) != 1 || out.Entries[0] != want {
		t.Fatalf("unexpected entries %+v", out.Entries)
	}
}

func TestRequestsTodayAndAudit(t *testing.T) {
	s, _, l, a := newTestServer()
	l.count = 4

	_, count, err := s.handleRequestsToday(context.Background(), &mcpsdk.CallToolRequest{}, UserInput{UserID: "u1"})
	if err != nil || count.Count != 4 {
		t.Fatalf("unexpected count %+v err %v", count, err)
	}

	_, verdict, err := s.handleAudit(context.Background(), &mcpsdk.CallToolRequest{}, AuditInput{
		UserID:         "u1",
		InteractionLog: []string{"opened", "scrolled"},
		ScreenState:    "shorts feed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.Score != 20 || verdict.OnTrack {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
	if a.got.ScreenState != "shorts feed" || len(a.got.InteractionLog) != 2 {
		t.Fatalf("unexpected audit params %+v", a.got)
	}
}
