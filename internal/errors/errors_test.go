package errors

import (
	"testing"
)

func TestExitError_Error(t *testing.T) {
	err := NewExitError(New("boom"), ExitSystem)
	if got := err.Error(); got != "boom" {
		t.Errorf("Error() = %q, want %q", got, "boom")
	}

	nilErr := NewExitError(nil, ExitUser)
	if got := nilErr.Error(); got != "exit code 1" {
		t.Errorf("Error() with nil Err = %q, want %q", got, "exit code 1")
	}
}

func TestExitError_Unwrap(t *testing.T) {
	inner := ErrOptionNotAllowed
	err := NewUserError(Wrap(inner, "building volume /mnt/data"), "check the declaration")

	if !Is(err, ErrOptionNotAllowed) {
		t.Error("errors.Is should find the wrapped sentinel through ExitError")
	}

	var exitErr *ExitError
	if !As(err, &exitErr) {
		t.Fatal("errors.As should find *ExitError")
	}
	if exitErr.Code != ExitUser {
		t.Errorf("Code = %d, want %d", exitErr.Code, ExitUser)
	}
	if exitErr.Suggestion != "check the declaration" {
		t.Errorf("Suggestion = %q", exitErr.Suggestion)
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError(ErrInvalidConfig)
	if err.Code != ExitUser {
		t.Errorf("Code = %d, want %d", err.Code, ExitUser)
	}
	if err.Suggestion == "" {
		t.Error("expected a suggestion")
	}
}
