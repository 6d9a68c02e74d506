package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newAuditFixture(oracle *oracleStub) (*AuditService, *logRepoStub) {
	clock := &fixedClock{now: testNow}
	users := newUserRepoStub(User{ID: "u1", Name: "Tim"})
	logs := &logRepoStub{entries: []LogEntry{{
		UserID:   "u1",
		Query:    "reply to two DMs on Instagram",
		Answer:   `{"allow":true,"minutes":5,"reply":"ok"}`,
		DateTime: testNow.Add(-3 * time.Minute),
	}}}
	return NewAuditService(users, NewRequestLog(logs, clock.Now), oracle, time.Second), logs
}

func TestAuditService_Audit(t *testing.T) {
	t.Parallel()

	oracle := staticOracle(`{"on_track":false,"verdict":"You drifted into reels.","score":20,"feedback":"You were here for DMs.","next_step":"Close the app."}`)
	svc, logs := newAuditFixture(oracle)

	result, err := svc.Audit(context.Background(), AuditParams{
		UserID:         "u1",
		InteractionLog: []string{"opened DMs", "opened reels"},
		ScreenState:    "Reels feed playing a video",
		Image:          &Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"},
	})
	if err != nil {
		t.Fatalf("Audit failed: %v", err)
	}
	if result.OnTrack || result.Score != 20 || result.NextStep != "Close the app." {
		t.Fatalf("unexpected result %+v", result)
	}

	calls := oracle.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one oracle call, got %d", len(calls))
	}
	req := calls[0]
	if req.Profile != ProfileAudit || req.Image == nil || req.Schema.Name != ComplianceSchema.Name {
		t.Fatalf("unexpected request %+v", req)
	}
	for _, want := range []string{"Tim", "reply to two DMs on Instagram", "1. opened DMs", "2. opened reels"} {
		if !strings.Contains(req.Context, want) {
			t.Fatalf("expected %q in audit context:\n%s", want, req.Context)
		}
	}
	if !strings.Contains(req.Query, "Reels feed") {
		t.Fatalf("expected screen state in query, got %q", req.Query)
	}

	if n := len(logs.snapshot()); n != 1 {
		t.Fatalf("audit must not write to the request log, got %d entries", n)
	}
}

func TestAuditService_ScoreOutOfRange(t *testing.T) {
	t.Parallel()

	svc, _ := newAuditFixture(staticOracle(`{"on_track":true,"verdict":"fine","score":140,"feedback":"f","next_step":"n"}`))
	_, err := svc.Audit(context.Background(), AuditParams{UserID: "u1", ScreenState: "DMs"})
	if !errors.Is(err, ErrOracleContractViolation) {
		t.Fatalf("expected ErrOracleContractViolation, got %v", err)
	}
}

func TestAuditService_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newAuditFixture(staticOracle(`{}`))
	_, err := svc.Audit(context.Background(), AuditParams{UserID: "u1"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["screen_state"]; !ok {
		t.Fatalf("expected screen_state error, got %v", vErr.FieldErrors)
	}

	_, err = svc.Audit(context.Background(), AuditParams{UserID: "ghost", ScreenState: "feed"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuditService_NoHistoryUsesSentinel(t *testing.T) {
	t.Parallel()

	oracle := staticOracle(`{"on_track":true,"verdict":"ok","score":90,"feedback":"f","next_step":"n"}`)
	svc, logs := newAuditFixture(oracle)
	logs.entries = nil

	if _, err := svc.Audit(context.Background(), AuditParams{UserID: "u1", ScreenState: "home screen"}); err != nil {
		t.Fatalf("Audit failed: %v", err)
	}
	if !strings.Contains(oracle.calls()[0].Context, EmptyLatestSentinel) {
		t.Fatalf("expected empty sentinel in context")
	}
}
