package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// AuditService scores whether in-app behaviour still matches the intention
// behind the user's last request. It never writes to the request log.
type AuditService struct {
	users   UserRepository
	log     *RequestLog
	oracle  Oracle
	timeout time.Duration
	logger  *slog.Logger
}

// NewAuditService constructs an audit service.
func NewAuditService(users UserRepository, log *RequestLog, oracle Oracle, timeout time.Duration) *AuditService {
	return NewAuditServiceWithLogger(users, log, oracle, timeout, nil)
}

// NewAuditServiceWithLogger constructs an audit service with a specified logger.
func NewAuditServiceWithLogger(users UserRepository, log *RequestLog, oracle Oracle, timeout time.Duration, logger *slog.Logger) *AuditService {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &AuditService{users: users, log: log, oracle: oracle, timeout: timeout, logger: defaultLogger(logger)}
}

// Audit returns a compliance verdict for the supplied interaction log and screen state.
func (s *AuditService) Audit(ctx context.Context, params AuditParams) (result ComplianceVerdict, err error) {
	if s == nil {
		err = fmt.Errorf("AuditService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "AuditService", "Audit",
		"user_id", params.UserID,
		"interactions", len(params.InteractionLog),
		"has_image", params.Image != nil,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "audit failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "audit completed", "on_track", result.OnTrack, "score", result.Score)
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(params.UserID) == "" {
		vErr.add("user_id", "is required")
	}
	if strings.TrimSpace(params.ScreenState) == "" && params.Image == nil {
		vErr.add("screen_state", "a description or an image is required")
	}
	if params.Image != nil && (len(params.Image.Data) == 0 || params.Image.MIMEType == "") {
		vErr.add("image", "needs data and a MIME type")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var user User
	user, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		err = fmt.Errorf("resolve user %s: %w", params.UserID, err)
		return
	}

	var latest string
	latest, err = s.log.RenderLatest(ctx, params.UserID)
	if err != nil {
		err = fmt.Errorf("latest request for %s: %w", params.UserID, err)
		return
	}

	req := OracleRequest{
		Profile:      ProfileAudit,
		Instructions: []string{goalCoachInstructions},
		Context:      renderAuditContext(user.Name, latest, params.InteractionLog),
		Query:        renderScreenState(params.ScreenState, params.Image != nil),
		Image:        params.Image,
		Schema:       ComplianceSchema,
	}

	var raw []byte
	raw, err = callOracle(ctx, s.oracle, s.timeout, req)
	if err != nil {
		return
	}

	var verdict ComplianceVerdict
	if err = decodeStrict(raw, ComplianceSchema, &verdict); err != nil {
		return
	}

	result = verdict
	return
}

func renderAuditContext(name, latest string, interactions []string) string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	fmt.Fprintf(&b, "User name: %s\n", name)
	fmt.Fprintf(&b, "Most recent request: %s\n\n", latest)
	b.WriteString("LOGS (most recent last):\n")
	if len(interactions) == 0 {
		b.WriteString("No interactions recorded.\n")
	}
	for i, line := range interactions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(line))
	}
	return b.String()
}

func renderScreenState(description string, hasImage bool) string {
	description = strings.TrimSpace(description)
	switch {
	case description != "" && hasImage:
		return "SCREEN: " + description + "\nThe attached image shows the current screen."
	case description != "":
		return "SCREEN: " + description
	default:
		return "SCREEN: see the attached image of the current screen."
	}
}
