// Package mcp exposes the bouncer to agents as Model Context Protocol tools.
package mcp

import (
	"context"
	"log/slog"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/example/app-bouncer/internal/application"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

type decisionService interface {
	Decide(ctx context.Context, params application.DecideParams) (application.Verdict, error)
}

type requestLog interface {
	CountToday(ctx context.Context, userID string) (int, error)
	Window(ctx context.Context, userID string, hours int) ([]application.LogEntry, error)
}

type auditService interface {
	Audit(ctx context.Context, params application.AuditParams) (application.ComplianceVerdict, error)
}

// Config holds the services the tools call into.
type Config struct {
	Decisions          decisionService
	RequestLog         requestLog
	Audits             auditService
	HistoryWindowHours int
	Logger             *slog.Logger
}

// Server wraps the MCP SDK server with the bouncer tools.
type Server struct {
	mcpServer     *mcpsdk.Server
	decisions     decisionService
	log           requestLog
	audits        auditService
	defaultWindow int
	logger        *slog.Logger
}

// New creates an MCP server with all tools registered.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := cfg.HistoryWindowHours
	if window <= 0 {
		window = application.DefaultHistoryWindowHours
	}

	s := &Server{
		decisions:     cfg.Decisions,
		log:           cfg.RequestLog,
		audits:        cfg.Audits,
		defaultWindow: window,
		logger:        logger.With("component", "mcp"),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "app-bouncer",
			Version: Version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdio. Blocks until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "mcp server starting", "transport", "stdio")
	started := time.Now()
	err := s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
	s.logger.InfoContext(ctx, "mcp server stopped", "uptime", time.Since(started), "error", err)
	return err
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bouncer_ask",
		Description: "Ask for permission to open a restricted app. Returns allow, granted minutes and a short reply. Every answer is recorded.",
	}, s.handleAsk)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bouncer_requests_today",
		Description: "Count the permission requests a user made since local midnight.",
	}, s.handleRequestsToday)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bouncer_history",
		Description: "List a user's recorded requests within the trailing window, oldest first.",
	}, s.handleHistory)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bouncer_audit",
		Description: "Score whether the current screen still matches what the user asked permission for. Advisory only; nothing is recorded.",
	}, s.handleAudit)
}
