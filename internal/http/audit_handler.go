package http

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/app-bouncer/internal/application"
)

type auditService interface {
	Audit(ctx context.Context, params application.AuditParams) (application.ComplianceVerdict, error)
}

// AuditHandler serves follow-through audits.
type AuditHandler struct {
	service   auditService
	responder responder
	logger    *slog.Logger
}

func NewAuditHandler(service auditService, logger *slog.Logger) *AuditHandler {
	base := defaultLogger(logger)
	return &AuditHandler{service: service, responder: newResponder(base), logger: base}
}

// Create scores the current screen against the last permitted request.
func (h *AuditHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	userID, ok := requireUserID(w, r, h.responder)
	if !ok {
		return
	}
	logger := handlerLogger(r.Context(), h.logger, "AuditHandler", "Create", "user_id", userID)

	var req auditRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode audit request", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params := application.AuditParams{
		UserID:         userID,
		InteractionLog: req.InteractionLog,
		ScreenState:    req.ScreenState,
	}
	if encoded := strings.TrimSpace(req.ImageBase64); encoded != "" {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidImage)
			return
		}
		mimeType := strings.TrimSpace(req.ImageMIMEType)
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		params.Image = &application.Image{Data: data, MIMEType: mimeType}
	}

	verdict, err := h.service.Audit(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "audit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, verdict)
}

type auditRequest struct {
	InteractionLog []string `json:"interaction_log"`
	ScreenState    string   `json:"screen_state"`
	ImageBase64    string   `json:"image_base64"`
	ImageMIMEType  string   `json:"image_mime_type"`
}
