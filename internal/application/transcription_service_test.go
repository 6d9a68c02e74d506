package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type transcriberStub struct {
	text string
	err  error
	mime string
}

func (s *transcriberStub) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	s.mime = mimeType
	return s.text, s.err
}

func TestTranscriptionService(t *testing.T) {
	t.Parallel()

	t.Run("trims text", func(t *testing.T) {
		stub := &transcriberStub{text: "  can I open TikTok  "}
		svc := NewTranscriptionService(stub, time.Second, nil)
		got, err := svc.Transcribe(context.Background(), []byte("audio"), "audio/m4a")
		if err != nil {
			t.Fatalf("Transcribe failed: %v", err)
		}
		if got != "can I open TikTok" || stub.mime != "audio/m4a" {
			t.Fatalf("unexpected result %q (mime %q)", got, stub.mime)
		}
	})

	t.Run("empty audio", func(t *testing.T) {
		svc := NewTranscriptionService(&transcriberStub{}, time.Second, nil)
		if _, err := svc.Transcribe(context.Background(), nil, "audio/m4a"); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		svc := NewTranscriptionService(&transcriberStub{err: errors.New("timeout")}, time.Second, nil)
		if _, err := svc.Transcribe(context.Background(), []byte("a"), "audio/wav"); !errors.Is(err, ErrUpstreamUnavailable) {
			t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
		}
	})

	t.Run("silence", func(t *testing.T) {
		svc := NewTranscriptionService(&transcriberStub{text: "   "}, time.Second, nil)
		if _, err := svc.Transcribe(context.Background(), []byte("a"), "audio/wav"); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewTranscriptionService(nil, time.Second, nil)
		if _, err := svc.Transcribe(context.Background(), []byte("a"), "audio/wav"); !errors.Is(err, ErrUpstreamUnavailable) {
			t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
		}
	})
}
