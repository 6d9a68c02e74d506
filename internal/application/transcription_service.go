package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TranscriptionService turns a voice request into query text.
type TranscriptionService struct {
	transcriber Transcriber
	timeout     time.Duration
	logger      *slog.Logger
}

// NewTranscriptionService constructs a transcription service.
func NewTranscriptionService(transcriber Transcriber, timeout time.Duration, logger *slog.Logger) *TranscriptionService {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &TranscriptionService{transcriber: transcriber, timeout: timeout, logger: defaultLogger(logger)}
}

// Transcribe returns the spoken text in audio.
func (s *TranscriptionService) Transcribe(ctx context.Context, audio []byte, mimeType string) (text string, err error) {
	logger := serviceLogger(ctx, s.logger, "TranscriptionService", "Transcribe", "bytes", len(audio), "mime_type", mimeType)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "transcription failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "transcription completed", "text_length", len(text))
	}()

	if len(audio) == 0 {
		err = fmt.Errorf("%w: audio is empty", ErrInvalidArgument)
		return
	}
	if s.transcriber == nil {
		err = fmt.Errorf("%w: no transcriber configured", ErrUpstreamUnavailable)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err = s.transcriber.Transcribe(callCtx, audio, mimeType)
	if err != nil {
		if !errors.Is(err, ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		}
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		err = fmt.Errorf("%w: no speech recognized", ErrInvalidArgument)
	}
	return
}
