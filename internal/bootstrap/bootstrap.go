// Package bootstrap assembles storage, oracle backends and application
// services into a runnable graph shared by the HTTP, MCP and CLI surfaces.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/app-bouncer/internal/application"
	"github.com/example/app-bouncer/internal/config"
	"github.com/example/app-bouncer/internal/oracle"
	"github.com/example/app-bouncer/internal/persistence"
	"github.com/example/app-bouncer/internal/persistence/memory"
	"github.com/example/app-bouncer/internal/persistence/sqlstore"
)

// Deps are the collaborators a service graph is built from.
type Deps struct {
	Store              persistence.Store
	Oracle             application.Oracle
	Transcriber        application.Transcriber
	IDGenerator        func() string
	Now                func() time.Time
	OracleTimeout      time.Duration
	HistoryWindowHours int
	Logger             *slog.Logger
}

// Services is the application layer wired over a single store.
type Services struct {
	RequestLog    *application.RequestLog
	Assembler     *application.ContextAssembler
	Decisions     *application.DecisionService
	Onboarding    *application.OnboardingService
	Preferences   *application.PreferenceService
	Audits        *application.AuditService
	Transcription *application.TranscriptionService
}

// NewServices wires the application services over deps.Store.
func NewServices(deps Deps) *Services {
	if deps.IDGenerator == nil {
		deps.IDGenerator = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	users := newUserRepositoryAdapter(deps.Store)
	prefs := newPreferenceRepositoryAdapter(deps.Store)
	logs := newLogRepositoryAdapter(deps.Store)

	requestLog := application.NewRequestLogWithLogger(logs, deps.Now, deps.Logger)
	assembler := application.NewContextAssemblerWithLogger(users, prefs, requestLog, deps.Now, deps.HistoryWindowHours, deps.Logger)

	return &Services{
		RequestLog:    requestLog,
		Assembler:     assembler,
		Decisions:     application.NewDecisionServiceWithLogger(assembler, deps.Oracle, requestLog, deps.OracleTimeout, deps.Logger),
		Onboarding:    application.NewOnboardingServiceWithLogger(users, prefs, deps.IDGenerator, deps.Now, deps.Logger),
		Preferences:   application.NewPreferenceServiceWithLogger(users, prefs, deps.Now, deps.Logger),
		Audits:        application.NewAuditServiceWithLogger(users, requestLog, deps.Oracle, deps.OracleTimeout, deps.Logger),
		Transcription: application.NewTranscriptionService(deps.Transcriber, deps.OracleTimeout, deps.Logger),
	}
}

// App owns the long-lived resources behind a Services graph.
type App struct {
	Config   config.Config
	Store    persistence.Store
	Services *Services
	Logger   *slog.Logger
}

// New opens and migrates storage, builds the configured oracle backend and
// wires the services.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	backend, transcriber, err := NewOracle(ctx, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if backend == nil {
		logger.Warn("no decision oracle configured; decisions and audits will fail", "provider", cfg.Oracle.Provider)
	}

	services := NewServices(Deps{
		Store:              store,
		Oracle:             backend,
		Transcriber:        transcriber,
		IDGenerator:        uuid.NewString,
		Now:                time.Now,
		OracleTimeout:      cfg.Oracle.Timeout,
		HistoryWindowHours: cfg.HistoryWindowHours,
		Logger:             logger,
	})

	logger.Info("bouncer initialised",
		"storage", cfg.Storage,
		"oracle_provider", cfg.Oracle.Provider,
		"oracle_model", cfg.Oracle.Model,
		"history_window_hours", cfg.HistoryWindowHours,
	)
	return &App{Config: cfg, Store: store, Services: services, Logger: logger}, nil
}

// OpenStore opens the storage backend selected by cfg without migrating it.
func OpenStore(ctx context.Context, cfg config.Config) (persistence.Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return memory.Open(), nil
	case config.StorageSQLite:
		store, err := sqlstore.Open(ctx, sqlstore.DefaultSQLiteConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, nil
	case config.StoragePostgres:
		store, err := sqlstore.Open(ctx, sqlstore.DefaultPostgresConfig(cfg.PostgresDSN))
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
}

// NewOracle builds the configured decision oracle and transcriber. Both are
// nil when the provider is "none".
func NewOracle(ctx context.Context, cfg config.Config, logger *slog.Logger) (application.Oracle, application.Transcriber, error) {
	switch cfg.Oracle.Provider {
	case config.ProviderNone:
		return nil, nil, nil
	case config.ProviderGemini:
		g, err := oracle.NewGemini(ctx, oracle.GeminiConfig{
			APIKey:             cfg.Oracle.APIKey,
			Model:              cfg.Oracle.Model,
			TranscriptionModel: cfg.Transcription.Model,
			BaseURL:            cfg.Oracle.BaseURL,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	case config.ProviderOpenAI:
		o, err := oracle.NewOpenAI(oracle.OpenAIConfig{
			APIKey:             cfg.Oracle.APIKey,
			BaseURL:            cfg.Oracle.BaseURL,
			Model:              cfg.Oracle.Model,
			TranscriptionModel: cfg.Transcription.Model,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return o, o, nil
	default:
		return nil, nil, fmt.Errorf("unsupported oracle provider %q", cfg.Oracle.Provider)
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping reports whether the store is reachable. Stores without a network
// connection are always healthy.
func (a *App) Ping(ctx context.Context) error {
	if a == nil || a.Store == nil {
		return errors.New("app is not initialised")
	}
	if p, ok := a.Store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
