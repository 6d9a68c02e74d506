package testfixtures

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/app-bouncer/internal/application"
)

var harnesses = map[string]func(testing.TB, ...HarnessOption) *Harness{
	"memory": NewMemoryHarness,
	"sqlite": NewSQLiteHarness,
}

func TestHarnessDecisionFlow(t *testing.T) {
	for name, build := range harnesses {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := build(t)
			userID := h.Onboard(t, WithName("Robin", "Quill"))
			assert.Equal(t, h.IDs.Peek(1), userID)

			now := h.Clock.Now()
			verdict, err := h.Decide(ctx, userID, "reply to a friend", VerdictJSON(true, 10, "Ten minutes, Robin."),
				UsageSample("com.instagram.android", 42, now, 5))
			require.NoError(t, err)
			assert.Equal(t, application.Verdict{Allow: true, Minutes: 10, Reply: "Ten minutes, Robin."}, verdict)

			first, ok := h.Oracle.LastRequest()
			require.True(t, ok)
			assert.Contains(t, first.Context, "Robin")
			assert.Contains(t, first.Context, "REQUESTS TODAY: 0")
			assert.Contains(t, first.Context, "com.instagram.android")

			h.Clock.Advance(20 * time.Minute)
			_, err = h.Decide(ctx, userID, "one more video", VerdictJSON(false, 0, "Not now."))
			require.NoError(t, err)

			second, _ := h.Oracle.LastRequest()
			assert.Contains(t, second.Context, "REQUESTS TODAY: 1")
			assert.Contains(t, second.Context, "reply to a friend")

			count, err := h.Services.RequestLog.CountToday(ctx, userID)
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			h.Clock.NextDay()
			count, err = h.Services.RequestLog.CountToday(ctx, userID)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestHarnessContractViolationLeavesLogUntouched(t *testing.T) {
	for name, build := range harnesses {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := build(t)
			userID := h.Onboard(t)

			_, err := h.Decide(ctx, userID, "just scrolling", VerdictJSON(false, 15, "No."))
			require.ErrorIs(t, err, application.ErrOracleContractViolation)

			_, err = h.Decide(ctx, userID, "just scrolling", `{"allow":true}`)
			require.ErrorIs(t, err, application.ErrOracleContractViolation)

			_, err = h.Services.RequestLog.Latest(ctx, userID)
			assert.ErrorIs(t, err, application.ErrNotFound)
		})
	}
}

func TestHarnessUnknownUserNeverReachesOracle(t *testing.T) {
	h := NewMemoryHarness(t)

	_, err := h.Decide(context.Background(), "missing", "open instagram", VerdictJSON(true, 5, "ok"))
	require.ErrorIs(t, err, application.ErrNotFound)
	assert.Empty(t, h.Oracle.Requests())
	assert.Equal(t, 1, h.Oracle.Pending())
}

func TestHarnessAuditSeesLatestVerdict(t *testing.T) {
	ctx := context.Background()
	h := NewSQLiteHarness(t)
	userID := h.Onboard(t)

	_, err := h.Decide(ctx, userID, "check the bus schedule", VerdictJSON(true, 3, "Three minutes."))
	require.NoError(t, err)

	h.Oracle.Reply(ComplianceJSON(false, "drifting", 25, "You opened reels.", "Close the app."))
	result, err := h.Services.Audits.Audit(ctx, application.AuditParams{
		UserID:         userID,
		InteractionLog: []string{"opened reels"},
		ScreenState:    "reels feed",
	})
	require.NoError(t, err)
	assert.False(t, result.OnTrack)
	assert.Equal(t, 25, result.Score)

	req, _ := h.Oracle.LastRequest()
	assert.Equal(t, application.ProfileAudit, req.Profile)
	assert.True(t, strings.Contains(req.Context, "check the bus schedule"), req.Context)
}

func TestScriptedOracleErrorsAndExhaustion(t *testing.T) {
	boom := errors.New("boom")
	o := NewScriptedOracle().Fail(boom)

	_, err := o.Complete(context.Background(), application.OracleRequest{})
	assert.ErrorIs(t, err, boom)
	_, err = o.Complete(context.Background(), application.OracleRequest{})
	assert.ErrorIs(t, err, ErrScriptExhausted)
	assert.Len(t, o.Requests(), 2)
}

func TestStaticTranscriberRecordsAudio(t *testing.T) {
	h := NewMemoryHarness(t)
	h.Transcriber.Text = "may I open youtube"

	text, err := h.Services.Transcription.Transcribe(context.Background(), []byte{1, 2, 3}, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "may I open youtube", text)

	audio, mime := h.Transcriber.Received()
	assert.Equal(t, []byte{1, 2, 3}, audio)
	assert.Equal(t, "audio/wav", mime)
}
