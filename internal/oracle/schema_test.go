package oracle

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"

	"github.com/example/app-bouncer/internal/application"
)

func TestJSONSchemaIsStrict(t *testing.T) {
	got := jsonSchema(application.VerdictSchema)

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"allow":   map[string]any{"type": "boolean", "description": "Whether the user may open the app now."},
			"minutes": map[string]any{"type": "integer", "description": "Minutes granted; 0 when access is denied.", "minimum": 0},
			"reply":   map[string]any{"type": "string", "description": "Short message shown to the user."},
		},
		"required":             []string{"allow", "minutes", "reply"},
		"additionalProperties": false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("jsonSchema mismatch (-want +got):\n%s", diff)
	}
}

func TestGenaiSchemaCarriesBounds(t *testing.T) {
	got := genaiSchema(application.ComplianceSchema)

	if got.Type != genai.TypeObject {
		t.Fatalf("expected object schema, got %q", got.Type)
	}
	wantOrder := []string{"on_track", "verdict", "score", "feedback", "next_step"}
	if diff := cmp.Diff(wantOrder, got.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantOrder, got.PropertyOrdering); diff != "" {
		t.Fatalf("ordering mismatch (-want +got):\n%s", diff)
	}
	score := got.Properties["score"]
	if score == nil || score.Type != genai.TypeInteger {
		t.Fatalf("expected integer score property, got %+v", score)
	}
	if score.Minimum == nil || *score.Minimum != 0 || score.Maximum == nil || *score.Maximum != 100 {
		t.Fatalf("expected score bounds 0..100, got %v..%v", score.Minimum, score.Maximum)
	}
	if got.Properties["on_track"].Type != genai.TypeBoolean {
		t.Fatalf("expected boolean on_track")
	}
}

func TestPrompts(t *testing.T) {
	req := application.OracleRequest{
		Profile:      application.ProfileArbitration,
		Instructions: []string{"  gatekeeper  ", "", "be chill"},
		Context:      "CONTEXT:\nsomething",
		Query:        " can I open instagram? ",
	}

	if got, want := systemPrompt(req), "gatekeeper\n\nbe chill"; got != want {
		t.Fatalf("systemPrompt = %q, want %q", got, want)
	}
	if got, want := userPrompt(req), "CONTEXT:\nsomething\n\nUSER REQUEST:\ncan I open instagram?"; got != want {
		t.Fatalf("userPrompt = %q, want %q", got, want)
	}

	req.Profile = application.ProfileAudit
	req.Query = "SCREEN: feed"
	if got, want := userPrompt(req), "CONTEXT:\nsomething\n\nSCREEN: feed"; got != want {
		t.Fatalf("audit userPrompt = %q, want %q", got, want)
	}
}

func TestDataURL(t *testing.T) {
	got := dataURL(&application.Image{Data: []byte("hi"), MIMEType: "image/png"})
	if want := "data:image/png;base64,aGk="; got != want {
		t.Fatalf("dataURL = %q, want %q", got, want)
	}
}
