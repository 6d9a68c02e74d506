package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/example/app-bouncer/internal/application"
)

// --- Input/Output types ---

// UsageInput is one usage sample reported by the device.
type UsageInput struct {
	PackageName  string `json:"package_name" jsonschema:"app package name, e.g. com.instagram.android"`
	TotalMinutes int    `json:"total_minutes" jsonschema:"foreground minutes today"`
	LastUsed     string `json:"last_used,omitempty" jsonschema:"RFC3339 time of last use"`
}

// AskInput defines parameters for the bouncer_ask tool.
type AskInput struct {
	UserID string       `json:"user_id" jsonschema:"onboarded user id"`
	Query  string       `json:"query" jsonschema:"what the user wants and why"`
	Usage  []UsageInput `json:"usage,omitempty" jsonschema:"today's usage samples"`
}

// AskOutput is the recorded verdict.
type AskOutput struct {
	Allow   bool   `json:"allow"`
	Minutes int    `json:"minutes"`
	Reply   string `json:"reply"`
}

// UserInput identifies a user.
type UserInput struct {
	UserID string `json:"user_id" jsonschema:"onboarded user id"`
}

// CountOutput carries a request count.
type CountOutput struct {
	Count int `json:"count"`
}

// HistoryInput defines parameters for the bouncer_history tool.
type HistoryInput struct {
	UserID      string `json:"user_id" jsonschema:"onboarded user id"`
	WindowHours int    `json:"window_hours,omitempty" jsonschema:"trailing window in hours, default 24"`
}

// HistoryEntry is one recorded request.
type HistoryEntry struct {
	Query    string `json:"query"`
	Allow    bool   `json:"allow"`
	Minutes  int    `json:"minutes"`
	Reply    string `json:"reply"`
	DateTime string `json:"date_time"`
}

// HistoryOutput lists recorded requests oldest first.
type HistoryOutput struct {
	WindowHours int            `json:"window_hours"`
	Entries     []HistoryEntry `json:"entries"`
}

// AuditInput defines parameters for the bouncer_audit tool.
type AuditInput struct {
	UserID         string   `json:"user_id" jsonschema:"onboarded user id"`
	InteractionLog []string `json:"interaction_log,omitempty" jsonschema:"ordered interactions since access was granted"`
	ScreenState    string   `json:"screen_state" jsonschema:"description of what is on screen"`
}

// AuditOutput is the compliance verdict.
type AuditOutput struct {
	OnTrack  bool   `json:"on_track"`
	Verdict  string `json:"verdict"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	NextStep string `json:"next_step"`
}

// --- Handlers ---

func (s *Server) handleAsk(ctx context.Context, _ *mcpsdk.CallToolRequest, input AskInput) (*mcpsdk.CallToolResult, AskOutput, error) {
	usage, err := toUsageSamples(input.Usage)
	if err != nil {
		return nil, AskOutput{}, err
	}
	verdict, err := s.decisions.Decide(ctx, application.DecideParams{
		UserID: strings.TrimSpace(input.UserID),
		Query:  input.Query,
		Usage:  usage,
	})
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}
	return nil, AskOutput{Allow: verdict.Allow, Minutes: verdict.Minutes, Reply: verdict.Reply}, nil
}

func (s *Server) handleRequestsToday(ctx context.Context, _ *mcpsdk.CallToolRequest, input UserInput) (*mcpsdk.CallToolResult, CountOutput, error) {
	count, err := s.log.CountToday(ctx, strings.TrimSpace(input.UserID))
	if err != nil {
		return nil, CountOutput{}, toolError(err)
	}
	return nil, CountOutput{Count: count}, nil
}

func (s *Server) handleHistory(ctx context.Context, _ *mcpsdk.CallToolRequest, input HistoryInput) (*mcpsdk.CallToolResult, HistoryOutput, error) {
	hours := input.WindowHours
	if hours == 0 {
		hours = s.defaultWindow
	}
	entries, err := s.log.Window(ctx, strings.TrimSpace(input.UserID), hours)
	if err != nil {
		return nil, HistoryOutput{}, toolError(err)
	}

	out := HistoryOutput{WindowHours: hours, Entries: make([]HistoryEntry, 0, len(entries))}
	for _, e := range entries {
		entry := HistoryEntry{Query: e.Query, DateTime: e.DateTime.UTC().Format(time.RFC3339)}
		var v application.Verdict
		if err := json.Unmarshal([]byte(e.Answer), &v); err == nil {
			entry.Allow, entry.Minutes, entry.Reply = v.Allow, v.Minutes, v.Reply
		} else {
			entry.Reply = e.Answer
		}
		out.Entries = append(out.Entries, entry)
	}
	return nil, out, nil
}

func (s *Server) handleAudit(ctx context.Context, _ *mcpsdk.CallToolRequest, input AuditInput) (*mcpsdk.CallToolResult, AuditOutput, error) {
	verdict, err := s.audits.Audit(ctx, application.AuditParams{
		UserID:         strings.TrimSpace(input.UserID),
		InteractionLog: input.InteractionLog,
		ScreenState:    input.ScreenState,
	})
	if err != nil {
		return nil, AuditOutput{}, toolError(err)
	}
	return nil, AuditOutput{
		OnTrack:  verdict.OnTrack,
		Verdict:  verdict.Verdict,
		Score:    verdict.Score,
		Feedback: verdict.Feedback,
		NextStep: verdict.NextStep,
	}, nil
}

func toUsageSamples(in []UsageInput) ([]application.UsageSample, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]application.UsageSample, 0, len(in))
	for i, u := range in {
		sample := application.UsageSample{PackageName: u.PackageName, TotalMinutes: u.TotalMinutes}
		if u.LastUsed != "" {
			t, err := time.Parse(time.RFC3339, u.LastUsed)
			if err != nil {
				return nil, fmt.Errorf("usage[%d].last_used: %w", i, err)
			}
			sample.LastUsed = t
		}
		out = append(out, sample)
	}
	return out, nil
}

// toolError turns service errors into messages an agent can act on.
func toolError(err error) error {
	var logErr *application.LogWriteError
	switch {
	case errors.As(err, &logErr):
		return errors.New("the decision could not be recorded; ask again")
	case errors.Is(err, application.ErrNotFound):
		return errors.New("unknown user; onboard the user first")
	case errors.Is(err, application.ErrUpstreamUnavailable):
		return errors.New("the decision service is unavailable; try again later")
	case errors.Is(err, application.ErrOracleContractViolation):
		return errors.New("the decision service returned an unusable answer; try again")
	default:
		return err
	}
}
