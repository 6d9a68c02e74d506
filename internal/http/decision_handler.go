package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/app-bouncer/internal/application"
)

// maxAudioBytes bounds uploaded voice requests.
const maxAudioBytes = 25 << 20

type decisionService interface {
	Decide(ctx context.Context, params application.DecideParams) (application.Verdict, error)
}

type transcriptionService interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// DecisionHandler serves permission requests.
type DecisionHandler struct {
	decisions     decisionService
	transcription transcriptionService
	responder     responder
	logger        *slog.Logger
}

func NewDecisionHandler(decisions decisionService, transcription transcriptionService, logger *slog.Logger) *DecisionHandler {
	base := defaultLogger(logger)
	return &DecisionHandler{decisions: decisions, transcription: transcription, responder: newResponder(base), logger: base}
}

func (h *DecisionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DecisionHandler", operation, attrs...)
}

// Decide arbitrates a typed request.
func (h *DecisionHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.decisions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := requireUserID(w, r, h.responder)
	if !ok {
		return
	}

	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Decide", "user_id", userID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode decision request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Decide", "user_id", userID)
	verdict, err := h.decisions.Decide(r.Context(), application.DecideParams{
		UserID: userID,
		Query:  req.Query,
		Usage:  toUsageSamples(req.Usage),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "decision failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "decision returned", "allow", verdict.Allow)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, verdict)
}

// DecideVoice transcribes an uploaded recording and arbitrates the result.
// The form carries the recording as "audio" and optional usage JSON as "usage".
func (h *DecisionHandler) DecideVoice(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.decisions == nil || h.transcription == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := requireUserID(w, r, h.responder)
	if !ok {
		return
	}
	logger := h.log(r.Context(), "DecideVoice", "user_id", userID)

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		logger.ErrorContext(r.Context(), "failed to parse voice request", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingAudio)
		return
	}
	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	_ = file.Close()
	if err != nil || len(audio) > maxAudioBytes {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var usage []usageSampleDTO
	if raw := strings.TrimSpace(r.FormValue("usage")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &usage); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUsageArg)
			return
		}
	}

	transcript, err := h.transcription.Transcribe(r.Context(), audio, header.Header.Get("Content-Type"))
	if err != nil {
		logger.ErrorContext(r.Context(), "transcription failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	verdict, err := h.decisions.Decide(r.Context(), application.DecideParams{
		UserID: userID,
		Query:  transcript,
		Usage:  toUsageSamples(usage),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "decision failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "voice decision returned", "allow", verdict.Allow, "transcript_length", len(transcript))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, voiceDecisionResponse{Verdict: verdict, Transcript: transcript})
}

type usageSampleDTO struct {
	PackageName  string    `json:"package_name"`
	TotalMinutes int       `json:"total_minutes"`
	LastUsed     time.Time `json:"last_used"`
}

type decisionRequest struct {
	Query string           `json:"query"`
	Usage []usageSampleDTO `json:"usage"`
}

type voiceDecisionResponse struct {
	application.Verdict
	Transcript string `json:"transcript"`
}

func toUsageSamples(in []usageSampleDTO) []application.UsageSample {
	if len(in) == 0 {
		return nil
	}
	out := make([]application.UsageSample, 0, len(in))
	for _, s := range in {
		out = append(out, application.UsageSample{
			PackageName:  s.PackageName,
			TotalMinutes: s.TotalMinutes,
			LastUsed:     s.LastUsed,
		})
	}
	return out
}

