package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/app-bouncer/internal/application"
	"github.com/example/app-bouncer/internal/config"
	"github.com/example/app-bouncer/internal/persistence/memory"
)

type cannedOracle struct {
	raw string
}

func (o cannedOracle) Complete(context.Context, application.OracleRequest) ([]byte, error) {
	return []byte(o.raw), nil
}

func TestNewServicesDecisionRoundTrip(t *testing.T) {
	now := time.Date(2024, time.May, 4, 18, 0, 0, 0, time.UTC)
	services := NewServices(Deps{
		Store:              memory.Open(),
		Oracle:             cannedOracle{raw: `{"allow":true,"minutes":15,"reply":"Enjoy."}`},
		IDGenerator:        func() string { return "user-1" },
		Now:                func() time.Time { return now },
		HistoryWindowHours: 24,
	})
	ctx := context.Background()

	id, err := services.Onboarding.Onboard(ctx, application.OnboardingConfig{
		Name:    "Ada",
		Surname: "Lovelace",
		Apps:    []string{"YouTube"},
		Factors: application.TimeFactors{Evening: 8},
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	verdict, err := services.Decisions.Decide(ctx, application.DecideParams{UserID: id, Query: "one video please"})
	require.NoError(t, err)
	assert.Equal(t, application.Verdict{Allow: true, Minutes: 15, Reply: "Enjoy."}, verdict)

	count, err := services.RequestLog.CountToday(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	latest, err := services.Preferences.Latest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"YouTube"}, latest.SelectedApps)
	require.NotNil(t, latest.Factors)
	assert.Equal(t, application.TimeFactors{Evening: 8}, *latest.Factors)
}

func TestAdaptersMapErrors(t *testing.T) {
	store := memory.Open()
	ctx := context.Background()

	_, err := newUserRepositoryAdapter(store).GetUser(ctx, "ghost")
	assert.True(t, errors.Is(err, application.ErrNotFound), "got %v", err)

	err = newPreferenceRepositoryAdapter(store).AppendPreference(ctx, application.Preference{UserID: "ghost", DateTime: time.Now()})
	assert.True(t, errors.Is(err, application.ErrNotFound), "got %v", err)

	err = newLogRepositoryAdapter(store).AppendLogEntry(ctx, application.LogEntry{UserID: "ghost", DateTime: time.Now()})
	assert.True(t, errors.Is(err, application.ErrNotFound), "got %v", err)

	_, err = newLogRepositoryAdapter(store).LatestLogEntry(ctx, "ghost")
	assert.True(t, errors.Is(err, application.ErrNotFound), "got %v", err)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Storage = config.StorageSQLite
	cfg.SQLiteDSN = "file:" + filepath.Join(t.TempDir(), "bouncer.db")
	store, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Close())

	cfg.Storage = "cassandra"
	_, err = OpenStore(ctx, cfg)
	require.Error(t, err)
}

func TestNewOracleSelection(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	cfg.Oracle.Provider = config.ProviderNone
	o, tr, err := NewOracle(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, o)
	assert.Nil(t, tr)

	cfg.Oracle.Provider = config.ProviderOpenAI
	cfg.Oracle.APIKey = "sk-test"
	o, tr, err = NewOracle(ctx, cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, o)
	assert.NotNil(t, tr)

	cfg.Oracle.APIKey = ""
	_, _, err = NewOracle(ctx, cfg, nil)
	require.Error(t, err)

	cfg.Oracle.Provider = "carrier-pigeon"
	_, _, err = NewOracle(ctx, cfg, nil)
	require.Error(t, err)
}

func TestNewAppWithoutOracleFailsDecisionsUpstream(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage = config.StorageMemory
	cfg.Oracle.Provider = config.ProviderNone

	app, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	require.NoError(t, app.Ping(ctx))

	id, err := app.Services.Onboarding.Onboard(ctx, application.OnboardingConfig{
		Name: "Ada", Surname: "Lovelace", Apps: []string{"TikTok"},
	})
	require.NoError(t, err)

	_, err = app.Services.Decisions.Decide(ctx, application.DecideParams{UserID: id, Query: "please"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, application.ErrUpstreamUnavailable), "got %v", err)

	count, err := app.Services.RequestLog.CountToday(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, count)
}
