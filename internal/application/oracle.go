package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// OracleProfile names the instruction profile a request is issued under.
type OracleProfile string

const (
	ProfileArbitration OracleProfile = "arbitration"
	ProfileAudit       OracleProfile = "audit"
)

// FieldType is the JSON type of a response field.
type FieldType string

const (
	FieldBoolean FieldType = "boolean"
	FieldInteger FieldType = "integer"
	FieldString  FieldType = "string"
)

// SchemaField describes one required property of an oracle response.
type SchemaField struct {
	Name        string
	Type        FieldType
	Description string
	Minimum     *int
	Maximum     *int
}

// ResponseSchema is the flat object shape an oracle must return. Every field
// is required and no other fields are allowed.
type ResponseSchema struct {
	Name   string
	Fields []SchemaField
}

// OracleRequest is everything a backend needs to produce one structured answer.
type OracleRequest struct {
	Profile      OracleProfile
	Instructions []string
	Context      string
	Query        string
	Image        *Image
	Schema       ResponseSchema
}

// Oracle maps a structured request to raw JSON matching req.Schema.
// Implementations must not retry.
type Oracle interface {
	Complete(ctx context.Context, req OracleRequest) ([]byte, error)
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

func intPtr(v int) *int { return &v }

// VerdictSchema is requested for permission decisions.
var VerdictSchema = ResponseSchema{
	Name: "bouncer_verdict",
	Fields: []SchemaField{
		{Name: "allow", Type: FieldBoolean, Description: "Whether the user may open the app now."},
		{Name: "minutes", Type: FieldInteger, Description: "Minutes granted; 0 when access is denied.", Minimum: intPtr(0)},
		{Name: "reply", Type: FieldString, Description: "Short message shown to the user."},
	},
}

// ComplianceSchema is requested for follow-through audits.
var ComplianceSchema = ResponseSchema{
	Name: "compliance_verdict",
	Fields: []SchemaField{
		{Name: "on_track", Type: FieldBoolean, Description: "Whether the behaviour still serves the stated goal."},
		{Name: "verdict", Type: FieldString, Description: "One-line summary."},
		{Name: "score", Type: FieldInteger, Description: "Alignment with the goal from 0 to 100.", Minimum: intPtr(0), Maximum: intPtr(100)},
		{Name: "feedback", Type: FieldString, Description: "One to three sentences of feedback."},
		{Name: "next_step", Type: FieldString, Description: "A concrete next action."},
	},
}

// decodeStrict unmarshals raw into out after checking it is exactly one JSON
// object carrying every schema field with the declared type and bounds and
// nothing else. Any mismatch is an ErrOracleContractViolation.
func decodeStrict(raw []byte, schema ResponseSchema, out any) error {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("%w: response is not a JSON object: %v", ErrOracleContractViolation, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after response object", ErrOracleContractViolation)
	}
	if fields == nil {
		return fmt.Errorf("%w: response is null", ErrOracleContractViolation)
	}

	known := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		known[f.Name] = true
		value, ok := fields[f.Name]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return fmt.Errorf("%w: missing field %q", ErrOracleContractViolation, f.Name)
		}
		if err := checkField(f, value); err != nil {
			return fmt.Errorf("%w: %v", ErrOracleContractViolation, err)
		}
	}
	for name := range fields {
		if !known[name] {
			return fmt.Errorf("%w: unexpected field %q", ErrOracleContractViolation, name)
		}
	}

	strict := json.NewDecoder(bytes.NewReader(raw))
	strict.DisallowUnknownFields()
	if err := strict.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrOracleContractViolation, err)
	}
	return nil
}

func checkField(f SchemaField, value json.RawMessage) error {
	switch f.Type {
	case FieldBoolean:
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return fmt.Errorf("field %q must be a boolean", f.Name)
		}
	case FieldString:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("field %q must be a string", f.Name)
		}
	case FieldInteger:
		n, err := strconv.Atoi(string(bytes.TrimSpace(value)))
		if err != nil {
			return fmt.Errorf("field %q must be an integer", f.Name)
		}
		if f.Minimum != nil && n < *f.Minimum {
			return fmt.Errorf("field %q is %d, below minimum %d", f.Name, n, *f.Minimum)
		}
		if f.Maximum != nil && n > *f.Maximum {
			return fmt.Errorf("field %q is %d, above maximum %d", f.Name, n, *f.Maximum)
		}
	default:
		return fmt.Errorf("field %q has unsupported type %q", f.Name, f.Type)
	}
	return nil
}
