package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"name": "is required", "apps": "must not be empty"}}
	if got := withFields.Error(); got != "validation failed: apps: must not be empty; name: is required" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidationError_MatchesInvalidArgument(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("onboard: %w", &ValidationError{FieldErrors: map[string]string{"name": "is required"}})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected validation error to match ErrInvalidArgument")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("validation error must not match ErrNotFound")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestUnknownPersonalityIsInvalidArgument(t *testing.T) {
	t.Parallel()

	if !errors.Is(ErrUnknownPersonality, ErrInvalidArgument) {
		t.Fatalf("expected ErrUnknownPersonality to wrap ErrInvalidArgument")
	}
}

func TestLogWriteError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := fmt.Errorf("decide: %w", &LogWriteError{UserID: "u1", Verdict: Verdict{Allow: true, Minutes: 5}, Err: cause})

	var logErr *LogWriteError
	if !errors.As(err, &logErr) {
		t.Fatalf("expected LogWriteError in chain")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if logErr.Verdict.Minutes != 5 {
		t.Fatalf("expected verdict to be carried, got %+v", logErr.Verdict)
	}
}
