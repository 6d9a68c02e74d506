// Package oracle holds the hosted language-model backends that answer
// application.OracleRequest and transcribe voice requests.
package oracle

import (
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/example/app-bouncer/internal/application"
)

const transcriptionPrompt = "Transcribe this recording word for word. Return only the transcript text."

// jsonSchema renders a response schema as a strict JSON Schema object.
func jsonSchema(s application.ResponseSchema) map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		prop := map[string]any{
			"type": string(f.Type),
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Minimum != nil {
			prop["minimum"] = *f.Minimum
		}
		if f.Maximum != nil {
			prop["maximum"] = *f.Maximum
		}
		properties[f.Name] = prop
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// genaiSchema renders a response schema in the Gemini schema dialect.
func genaiSchema(s application.ResponseSchema) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(s.Fields)),
	}
	for _, f := range s.Fields {
		prop := &genai.Schema{
			Type:        genaiType(f.Type),
			Description: f.Description,
		}
		if f.Minimum != nil {
			v := float64(*f.Minimum)
			prop.Minimum = &v
		}
		if f.Maximum != nil {
			v := float64(*f.Maximum)
			prop.Maximum = &v
		}
		out.Properties[f.Name] = prop
		out.Required = append(out.Required, f.Name)
		out.PropertyOrdering = append(out.PropertyOrdering, f.Name)
	}
	return out
}

func genaiType(t application.FieldType) genai.Type {
	switch t {
	case application.FieldBoolean:
		return genai.TypeBoolean
	case application.FieldInteger:
		return genai.TypeInteger
	default:
		return genai.TypeString
	}
}

// systemPrompt joins the instruction profile into one system message.
func systemPrompt(req application.OracleRequest) string {
	parts := make([]string, 0, len(req.Instructions))
	for _, instr := range req.Instructions {
		if s := strings.TrimSpace(instr); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// userPrompt lays out the assembled context followed by the request text.
func userPrompt(req application.OracleRequest) string {
	var b strings.Builder
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		b.WriteString(ctx)
	}
	if q := strings.TrimSpace(req.Query); q != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if req.Profile != application.ProfileAudit {
			b.WriteString("USER REQUEST:\n")
		}
		b.WriteString(q)
	}
	return b.String()
}

func dataURL(img *application.Image) string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
}

func upstreamError(backend string, err error) error {
	return fmt.Errorf("%w: %s: %w", application.ErrUpstreamUnavailable, backend, err)
}
