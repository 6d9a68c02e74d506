package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the requested user or preference does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidArgument is returned for malformed caller input.
	ErrInvalidArgument = errors.New("application: invalid argument")
	// ErrUnknownPersonality is returned when a stored personality key is not registered.
	ErrUnknownPersonality = fmt.Errorf("unknown personality: %w", ErrInvalidArgument)
	// ErrOracleContractViolation is returned when an oracle response does not match the requested schema.
	ErrOracleContractViolation = errors.New("application: oracle contract violation")
	// ErrUpstreamUnavailable is returned when the oracle or transcription backend fails or times out.
	ErrUpstreamUnavailable = errors.New("application: upstream unavailable")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.FieldErrors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets callers treat validation failures as ErrInvalidArgument.
func (v *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// LogWriteError reports that a verdict was produced but could not be recorded
// in the request log. The decision is not returned to the caller as a success.
type LogWriteError struct {
	UserID  string
	Verdict Verdict
	Err     error
}

func (e *LogWriteError) Error() string {
	return fmt.Sprintf("application: record verdict for user %s: %v", e.UserID, e.Err)
}

func (e *LogWriteError) Unwrap() error {
	return e.Err
}
