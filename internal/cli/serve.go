package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/app-bouncer/internal/bootstrap"
	httptransport "github.com/example/app-bouncer/internal/http"
)

const (
	shutdownGrace = 10 * time.Second
	maxBodyBytes  = 32 << 20
)

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP listen port (overrides http_port)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Serves the REST API until SIGINT or SIGTERM, then drains in-flight requests for up to 10 seconds.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Config.HTTPPort),
		Handler:           newHTTPHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      app.Config.Oracle.Timeout*2 + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("failed to shutdown server", "error", err)
		}
	}()

	app.Logger.Info("bouncer API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	app.Logger.Info("bouncer API stopped")
	return nil
}

func newHTTPHandler(app *bootstrap.App) http.Handler {
	s := app.Services
	return httptransport.NewRouter(httptransport.RouterConfig{
		Users:     httptransport.NewUserHandler(s.Onboarding, s.Preferences, app.Logger),
		Decisions: httptransport.NewDecisionHandler(s.Decisions, s.Transcription, app.Logger),
		Requests:  httptransport.NewRequestHandler(s.RequestLog, app.Config.HistoryWindowHours, app.Logger),
		Audits:    httptransport.NewAuditHandler(s.Audits, app.Logger),
		Health:    httptransport.NewHealthHandler(app, app.Logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(app.Logger),
			httptransport.Recoverer(app.Logger),
			httptransport.MaxBodyBytes(maxBodyBytes),
		},
	})
}
