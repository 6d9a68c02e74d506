package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/app-bouncer/internal/application"
	"github.com/example/app-bouncer/internal/bootstrap"
	"github.com/example/app-bouncer/internal/persistence"
	"github.com/example/app-bouncer/internal/persistence/memory"
	"github.com/example/app-bouncer/internal/persistence/sqlstore"
)

// Harness is a complete service graph over a real store, driven by a fake
// clock, deterministic IDs and a scripted oracle.
type Harness struct {
	Clock       *Clock
	IDs         *IDGenerator
	Oracle      *ScriptedOracle
	Transcriber *StaticTranscriber
	Store       persistence.Store
	Services    *bootstrap.Services
}

// HarnessOption configures a harness before its services are built.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	clock         *Clock
	logger        *slog.Logger
	oracleTimeout time.Duration
	windowHours   int
}

// WithHarnessClock injects a pre-positioned clock.
func WithHarnessClock(clock *Clock) HarnessOption {
	return func(c *harnessConfig) { c.clock = clock }
}

// WithHarnessLogger routes service logs to logger instead of discarding them.
func WithHarnessLogger(logger *slog.Logger) HarnessOption {
	return func(c *harnessConfig) { c.logger = logger }
}

// WithHistoryWindow overrides the decision history window.
func WithHistoryWindow(hours int) HarnessOption {
	return func(c *harnessConfig) { c.windowHours = hours }
}

// NewMemoryHarness builds a harness over the in-memory store.
func NewMemoryHarness(tb testing.TB, opts ...HarnessOption) *Harness {
	tb.Helper()
	return newHarness(tb, memory.Open(), opts...)
}

// NewSQLiteHarness builds a harness over a migrated SQLite file in a
// temporary directory.
func NewSQLiteHarness(tb testing.TB, opts ...HarnessOption) *Harness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "bouncer.db")
	store, err := sqlstore.Open(context.Background(), sqlstore.TempFileTestConfig(path))
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate sqlite store: %v", err)
	}
	return newHarness(tb, store, opts...)
}

func newHarness(tb testing.TB, store persistence.Store, opts ...HarnessOption) *Harness {
	tb.Helper()

	cfg := harnessConfig{oracleTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = NewClock(time.Time{})
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &Harness{
		Clock:       cfg.clock,
		IDs:         NewIDGenerator(tb.Name()),
		Oracle:      NewScriptedOracle(),
		Transcriber: &StaticTranscriber{},
		Store:       store,
	}
	h.Services = bootstrap.NewServices(bootstrap.Deps{
		Store:              store,
		Oracle:             h.Oracle,
		Transcriber:        h.Transcriber,
		IDGenerator:        h.IDs.NextFunc(),
		Now:                h.Clock.NowFunc(),
		OracleTimeout:      cfg.oracleTimeout,
		HistoryWindowHours: cfg.windowHours,
		Logger:             cfg.logger,
	})
	tb.Cleanup(func() { _ = store.Close() })
	return h
}

// Onboard creates a user from a fixture payload and returns its ID.
func (h *Harness) Onboard(tb testing.TB, opts ...OnboardingOption) string {
	tb.Helper()
	id, err := h.Services.Onboarding.Onboard(context.Background(), NewOnboardingConfig(opts...))
	if err != nil {
		tb.Fatalf("onboarding failed: %v", err)
	}
	return id
}

// Decide scripts raw as the next oracle answer and asks query on behalf of
// userID.
func (h *Harness) Decide(ctx context.Context, userID, query, raw string, usage ...application.UsageSample) (application.Verdict, error) {
	h.Oracle.Reply(raw)
	return h.Services.Decisions.Decide(ctx, application.DecideParams{
		UserID: userID,
		Query:  query,
		Usage:  usage,
	})
}
