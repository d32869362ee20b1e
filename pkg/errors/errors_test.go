package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	e := New(CodeToolFailure, "alphafold run failed", fmt.Errorf("exit status 1"))
	want := "[TOOL_FAILURE] alphafold run failed: exit status 1"
	if e.Error() != want {
		t.Errorf("got %q, want %q", e.Error(), want)
	}

	bare := New(CodeNotFound, "tool missing", nil)
	if bare.Error() != "[NOT_FOUND] tool missing" {
		t.Errorf("got %q", bare.Error())
	}
}

func TestUnwrapChain(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	e := New(CodeLLMError, "chat failed", cause)

	if !stderrors.Is(e, cause) {
		t.Error("errors.Is should find the cause")
	}
	var me *MAESDError
	wrapped := fmt.Errorf("role IntentAnalyser: %w", e)
	if !stderrors.As(wrapped, &me) {
		t.Fatal("errors.As should unwrap through fmt wrapping")
	}
	if me.Code != CodeLLMError {
		t.Errorf("unexpected code: %s", me.Code)
	}
}

func TestChaining(t *testing.T) {
	e := New(CodeParseError, "bad section", nil).
		WithContext("line", 12).
		WithAttribute("action", "IntentAnalysis").
		WithRecoverable(true)

	if e.Context["line"] != 12 {
		t.Errorf("context not set: %v", e.Context)
	}
	if e.Attributes["action"] != "IntentAnalysis" {
		t.Errorf("attribute not set: %v", e.Attributes)
	}
	if !e.Recoverable || e.RecoverableString() != "true" {
		t.Error("recoverable flag not set")
	}
}

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{CodeNotFound, 404},
		{CodeInvalidInput, 400},
		{CodeParseError, 400},
		{CodeTimeout, 408},
		{CodeRateLimit, 429},
		{CodeBudgetExceeded, 429},
		{CodeInternal, 500},
		{CodeToolFailure, 500},
	}
	for _, tc := range cases {
		if got := New(tc.code, "", nil).StatusCode; got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestAsMAESDError(t *testing.T) {
	if AsMAESDError(nil) != nil {
		t.Error("nil should stay nil")
	}

	typed := New(CodeTimeout, "slow", nil)
	if AsMAESDError(typed) != typed {
		t.Error("typed errors should pass through unchanged")
	}

	plain := fmt.Errorf("boom")
	wrapped := AsMAESDError(plain)
	if wrapped.Code != CodeInternal || !stderrors.Is(wrapped, plain) {
		t.Errorf("plain error not wrapped: %+v", wrapped)
	}
	if wrapped.Recoverable {
		t.Error("wrapped unknown errors default to non-recoverable")
	}
}
