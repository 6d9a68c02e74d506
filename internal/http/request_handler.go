package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/app-bouncer/internal/application"
)

type requestLogService interface {
	CountToday(ctx context.Context, userID string) (int, error)
	Window(ctx context.Context, userID string, hours int) ([]application.LogEntry, error)
	Latest(ctx context.Context, userID string) (application.LogEntry, error)
	Purge(ctx context.Context, userID string) (int64, error)
}

// RequestHandler exposes the request log of a user.
type RequestHandler struct {
	log           requestLogService
	defaultWindow int
	responder     responder
	logger        *slog.Logger
}

// NewRequestHandler builds a handler; defaultWindow applies when the caller
// omits window_hours.
func NewRequestHandler(log requestLogService, defaultWindow int, logger *slog.Logger) *RequestHandler {
	base := defaultLogger(logger)
	if defaultWindow <= 0 {
		defaultWindow = application.DefaultHistoryWindowHours
	}
	return &RequestHandler{log: log, defaultWindow: defaultWindow, responder: newResponder(base), logger: base}
}

func (h *RequestHandler) loggerFor(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RequestHandler", operation, attrs...)
}

// Today returns the number of requests logged since local midnight.
func (h *RequestHandler) Today(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.log == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	userID, ok := requireUserID(w, r, h.responder)
	if !ok {
		return
	}

	count, err := h.log.CountToday(r.Context(), userID)
	if err != nil {
		h.loggerFor(r.Context(), "Today", "user_id", userID).ErrorContext(r.Context(), "count failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, countResponse{Count: count})
}

// Window lists the requests of the trailing window in ascending order.
func (h *RequestHandler) Window(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.log == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	userID, ok := requireUserID(w, r, h.responder)
	if !ok {
		return
	}

	hours := h.defaultWindow
	if raw := strings.TrimSpace(r.URL.Query().Get("window_hours")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidWindow)
			return
		}
		hours = parsed
	}

	entries, err := h.log.Window(r.Context(), userID, hours)
	if err != nil {
		h.loggerFor(r.Context(), "Window", "user_id", userID, "window_hours", hours).ErrorContext(r.Context(), "window failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, windowResponse{WindowHours: hours, Entries: toLogEntryDTOs(entries)})
}

// Latest returns the most recent request or 404 when the log is empty.
func (h *RequestHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.log == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	userID, ok := requireUserID(w, r, h.responder)
	if !ok {
		return
	}

	entry, err := h.log.Latest(r.Context(), userID)
	if err != nil {
		h.loggerFor(r.Context(), "Latest", "user_id", userID).ErrorContext(r.Context(), "latest failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toLogEntryDTO(entry))
}

// Purge deletes every logged request of the user.
func (h *RequestHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.log == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	userID, ok := requireUserID(w, r, h.responder)
	if !ok {
		return
	}

	logger := h.loggerFor(r.Context(), "Purge", "user_id", userID)
	removed, err := h.log.Purge(r.Context(), userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "purge failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "request log purged", "removed", removed)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type countResponse struct {
	Count int `json:"count"`
}

type windowResponse struct {
	WindowHours int           `json:"window_hours"`
	Entries     []logEntryDTO `json:"entries"`
}

type logEntryDTO struct {
	UserID   string          `json:"user_id"`
	Query    string          `json:"query"`
	Answer   json.RawMessage `json:"answer"`
	DateTime string          `json:"date_time"`
}

func toLogEntryDTO(e application.LogEntry) logEntryDTO {
	answer := json.RawMessage(e.Answer)
	if !json.Valid(answer) {
		quoted, _ := json.Marshal(e.Answer)
		answer = quoted
	}
	return logEntryDTO{
		UserID:   e.UserID,
		Query:    e.Query,
		Answer:   answer,
		DateTime: e.DateTime.UTC().Format(time.RFC3339),
	}
}

func toLogEntryDTOs(entries []application.LogEntry) []logEntryDTO {
	out := make([]logEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLogEntryDTO(e))
	}
	return out
}
