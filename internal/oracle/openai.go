package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/example/app-bouncer/internal/application"
)

const (
	DefaultOpenAIBaseURL            = "https://api.openai.com/v1"
	DefaultOpenAIModel              = "gpt-4o-mini"
	DefaultOpenAITranscriptionModel = "whisper-1"

	maxErrorBody = 512
)

// OpenAIConfig configures an OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
	HTTPClient         *http.Client
}

// OpenAI talks to any endpoint that implements the chat completions and
// audio transcription APIs.
type OpenAI struct {
	apiKey             string
	baseURL            string
	model              string
	transcriptionModel string
	httpClient         *http.Client
	logger             *slog.Logger
}

var (
	_ application.Oracle      = (*OpenAI)(nil)
	_ application.Transcriber = (*OpenAI)(nil)
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type openAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAI creates an OpenAI-compatible backend.
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = DefaultOpenAITranscriptionModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		apiKey:             cfg.APIKey,
		baseURL:            strings.TrimRight(cfg.BaseURL, "/"),
		model:              cfg.Model,
		transcriptionModel: cfg.TranscriptionModel,
		httpClient:         cfg.HTTPClient,
		logger:             logger.With("component", "oracle", "backend", "openai"),
	}, nil
}

// Complete issues one chat completion constrained to req.Schema and returns
// the message content.
func (c *OpenAI) Complete(ctx context.Context, req application.OracleRequest) ([]byte, error) {
	var messages []openAIMessage
	if sys := systemPrompt(req); sys != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: sys})
	}
	if req.Image != nil {
		messages = append(messages, openAIMessage{Role: "user", Content: []openAIContentPart{
			{Type: "text", Text: userPrompt(req)},
			{Type: "image_url", ImageURL: &openAIImageURL{URL: dataURL(req.Image)}},
		}})
	} else {
		messages = append(messages, openAIMessage{Role: "user", Content: userPrompt(req)})
	}

	body := openAIRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.2,
		ResponseFormat: &openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: &openAIJSONSchema{
				Name:   req.Schema.Name,
				Strict: true,
				Schema: jsonSchema(req.Schema),
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	c.logger.DebugContext(ctx, "chat completion",
		"model", c.model,
		"profile", string(req.Profile),
		"schema", req.Schema.Name,
		"has_image", req.Image != nil,
	)
	respBody, err := c.do(ctx, "/chat/completions", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, upstreamError("openai", fmt.Errorf("parse response: %w", err))
	}
	if parsed.Error != nil {
		return nil, upstreamError("openai", errors.New(parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return nil, upstreamError("openai", errors.New("no completion returned"))
	}
	msg := parsed.Choices[0].Message
	if msg.Refusal != "" {
		return nil, upstreamError("openai", fmt.Errorf("model refused: %s", msg.Refusal))
	}
	content := strings.TrimSpace(msg.Content)
	c.logger.DebugContext(ctx, "chat completion done", "response_length", len(content))
	return []byte(content), nil
}

// Transcribe uploads the recording to the audio transcription endpoint.
func (c *OpenAI) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("model", c.transcriptionModel); err != nil {
		return "", fmt.Errorf("openai: write model field: %w", err)
	}
	part, err := w.CreateFormFile("file", "recording"+audioExtension(mimeType))
	if err != nil {
		return "", fmt.Errorf("openai: create file part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("openai: write audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("openai: close multipart body: %w", err)
	}

	respBody, err := c.do(ctx, "/audio/transcriptions", w.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", upstreamError("openai", fmt.Errorf("parse transcription: %w", err))
	}
	return strings.TrimSpace(parsed.Text), nil
}

func (c *OpenAI) do(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstreamError("openai", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstreamError("openai", fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, upstreamError("openai", fmt.Errorf("status %d: %s", resp.StatusCode, snippet))
	}
	return data, nil
}

func audioExtension(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/flac":
		return ".flac"
	default:
		return ".mp3"
	}
}
