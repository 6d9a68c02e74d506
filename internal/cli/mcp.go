package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	bouncermcp "github.com/example/app-bouncer/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs the bouncer as an MCP (Model Context Protocol) server over stdio.\nExposes tools: bouncer_ask, bouncer_requests_today, bouncer_history, bouncer_audit.\nLogs go to stderr; stdout carries the protocol.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	srv := bouncermcp.New(bouncermcp.Config{
		Decisions:          app.Services.Decisions,
		RequestLog:         app.Services.RequestLog,
		Audits:             app.Services.Audits,
		HistoryWindowHours: app.Config.HistoryWindowHours,
		Logger:             app.Logger,
	})
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
