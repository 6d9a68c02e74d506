// Package cli implements the bouncer command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/app-bouncer/internal/bootstrap"
	"github.com/example/app-bouncer/internal/config"
	"github.com/example/app-bouncer/internal/logging"
)

var (
	configPath    string
	storageFlag   string
	sqliteDSNFlag string
	providerFlag  string
	logLevelFlag  string
	logFormatFlag string
	logOutput     io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:           "bouncer",
	Short:         "Arbitrates requests to open distracting apps",
	Long:          "bouncer decides whether a user may open a restricted app right now, based on their stated goals,\ntheir recent requests and today's usage. It runs as an HTTP API, an MCP tool server or one-off commands.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to YAML configuration (defaults to $BOUNCER_CONFIG)")
	pf.StringVar(&storageFlag, "storage", "", "Storage backend: sqlite, postgres or memory")
	pf.StringVar(&sqliteDSNFlag, "sqlite-dsn", "", "SQLite DSN, e.g. file:bouncer.db")
	pf.StringVar(&providerFlag, "provider", "", "Decision oracle provider: gemini, openai or none")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&logFormatFlag, "log-format", "", "Log format: json or text")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configPath
	if path == "" {
		path = strings.TrimSpace(os.Getenv("BOUNCER_CONFIG"))
	}
	flags := cmd.Flags()
	return config.LoadFileWith(path, func(c *config.Config) {
		if flags.Changed("storage") {
			c.Storage = strings.ToLower(storageFlag)
		}
		if flags.Changed("sqlite-dsn") {
			c.SQLiteDSN = sqliteDSNFlag
		}
		if flags.Changed("provider") {
			c.Oracle.Provider = strings.ToLower(providerFlag)
		}
		if flags.Changed("log-level") {
			c.LogLevel = logLevelFlag
		}
		if flags.Changed("log-format") {
			c.LogFormat = logFormatFlag
		}
		if flags.Changed("port") {
			c.HTTPPort = servePort
		}
	})
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	return logging.New(logOutput, cfg.LogLevel, cfg.LogFormat)
}

// openApp loads configuration and wires the service graph.
func openApp(ctx context.Context, cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialise: %w", err)
	}
	return app, nil
}

func closeApp(app *bootstrap.App) {
	if err := app.Close(); err != nil {
		app.Logger.Error("failed to close storage", "error", err)
	}
}
