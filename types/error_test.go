package types

import (
	"errors"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrUnknownOutcome, "outcome not declared").WithAgent("greeter")
	if err.Error() != "[UNKNOWN_OUTCOME] outcome not declared" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	cause := errors.New("boom")
	wrapped := NewError(ErrUserTask, "handler failed").WithCause(cause)
	if !errors.Is(wrapped, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestGetErrorCode(t *testing.T) {
	if GetErrorCode(NewError(ErrValidation, "bad input")) != ErrValidation {
		t.Error("expected VALIDATION code")
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Error("expected empty code for plain error")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(NewError(ErrUpstreamError, "upstream").WithRetryable(true)) != true {
		t.Error("expected retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}
