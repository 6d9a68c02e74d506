package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/example/app-bouncer/internal/application"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey             string
	Model              string
	TranscriptionModel string
	// BaseURL overrides the API endpoint; empty uses the public Gemini API.
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini answers oracle requests with schema-constrained GenerateContent
// calls and transcribes audio through the same client.
type Gemini struct {
	client             *genai.Client
	model              string
	transcriptionModel string
	logger             *slog.Logger
}

var (
	_ application.Oracle      = (*Gemini)(nil)
	_ application.Transcriber = (*Gemini)(nil)
)

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = cfg.Model
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Gemini{
		client:             client,
		model:              cfg.Model,
		transcriptionModel: cfg.TranscriptionModel,
		logger:             logger.With("component", "oracle", "backend", "gemini"),
	}, nil
}

// Complete issues one GenerateContent call and returns the raw JSON text.
func (g *Gemini) Complete(ctx context.Context, req application.OracleRequest) ([]byte, error) {
	parts := []*genai.Part{genai.NewPartFromText(userPrompt(req))}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   genaiSchema(req.Schema),
	}
	if sys := systemPrompt(req); sys != "" {
		config.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}

	g.logger.DebugContext(ctx, "generate content",
		"model", g.model,
		"profile", string(req.Profile),
		"schema", req.Schema.Name,
		"has_image", req.Image != nil,
	)
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		config,
	)
	if err != nil {
		return nil, upstreamError("gemini", err)
	}
	text := strings.TrimSpace(resp.Text())
	g.logger.DebugContext(ctx, "generate content done", "response_length", len(text))
	return []byte(text), nil
}

// Transcribe asks the model for a verbatim transcript of the recording.
func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}
	parts := []*genai.Part{
		genai.NewPartFromText(transcriptionPrompt),
		genai.NewPartFromBytes(audio, mimeType),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.transcriptionModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return "", upstreamError("gemini", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
