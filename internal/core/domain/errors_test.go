package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("KM-TEST-1000", "test message"),
			expected: "[KM-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("KM-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[KM-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_RESP(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{"generic", ErrSyntax, "ERR syntax error"},
		{"wrong type", ErrWrongType, "WRONGTYPE Operation against a key holding the wrong kind of value"},
		{"arity", ArityError("GET"), "ERR wrong number of arguments for 'get' command"},
		{"unknown command", UnknownCommandError("FOO"), "ERR unknown command 'FOO'"},
		{"missing prefix", &DomainError{Code: "KM-TEST-1", Message: "boom"}, "ERR boom"},
		{"details hidden", ErrInternal.WithDetails("stack"), "ERR internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.RESP(); got != tt.expected {
				t.Errorf("RESP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("KM-TEST-1000", "message 1")
	err2 := NewDomainError("KM-TEST-1000", "message 2") // Same code, different message
	err3 := NewDomainError("KM-TEST-1001", "message 1") // Different code

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}

	// Reworded messages still belong to the family.
	if !errors.Is(ArityError("set"), ErrWrongArity) {
		t.Error("ArityError should match ErrWrongArity")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := NewDomainError("KM-TEST-1000", "wrapper").WithCause(cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	errNoCause := NewDomainError("KM-TEST-1000", "no cause")
	if errors.Unwrap(errNoCause) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("KM-TEST-1000", "original message")
	withDetails := original.WithDetails("additional details")

	if original.Details != "" {
		t.Error("WithDetails should not modify original error")
	}
	if withDetails.Details != "additional details" {
		t.Errorf("Details = %q, want %q", withDetails.Details, "additional details")
	}
	if withDetails.Code != original.Code {
		t.Errorf("Code = %q, want %q", withDetails.Code, original.Code)
	}
	if withDetails.Message != original.Message {
		t.Errorf("Message = %q, want %q", withDetails.Message, original.Message)
	}
}

func TestDomainError_WithMessage(t *testing.T) {
	withMsg := ErrWrongType.WithMessage("custom %d", 7)

	if withMsg.Message != "custom 7" {
		t.Errorf("Message = %q, want %q", withMsg.Message, "custom 7")
	}
	if withMsg.Prefix != PrefixWrongType {
		t.Errorf("Prefix = %q, want %q", withMsg.Prefix, PrefixWrongType)
	}
	if ErrWrongType.Message == withMsg.Message {
		t.Error("WithMessage should not modify original error")
	}
}

func TestDomainError_WithCause(t *testing.T) {
	original := NewDomainError("KM-TEST-1000", "original message")
	cause := fmt.Errorf("root cause")
	withCause := original.WithCause(cause)

	if original.Cause != nil {
		t.Error("WithCause should not modify original error")
	}
	if withCause.Cause != cause {
		t.Errorf("Cause = %v, want %v", withCause.Cause, cause)
	}
	if withCause.Code != original.Code {
		t.Errorf("Code = %q, want %q", withCause.Code, original.Code)
	}
}

func TestIsDomainError(t *testing.T) {
	err := ErrWrongType

	if !IsDomainError(err, "KM-TYPE-4000") {
		t.Error("IsDomainError should return true for matching code")
	}
	if IsDomainError(err, "KM-TYPE-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}
	if !IsDomainError(err, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}
	if IsDomainError(fmt.Errorf("regular error"), "KM-TYPE-4000") {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	wrapped := fmt.Errorf("wrapped: %w", ErrWrongType)
	if !IsDomainError(wrapped, "KM-TYPE-4000") {
		t.Error("IsDomainError should work with wrapped errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrNotInteger, "KM-VAL-4000"},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrStreamIDFormat), "KM-STRM-4000"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrWrongArity, "KM-PROTO-4000"},
		{ErrSyntax, "KM-PROTO-4001"},
		{ErrUnknownOption, "KM-PROTO-4002"},
		{ErrUnknownCommand, "KM-PROTO-4040"},

		{ErrWrongType, "KM-TYPE-4000"},

		{ErrNotInteger, "KM-VAL-4000"},
		{ErrInvalidExpire, "KM-VAL-4001"},
		{ErrInvalidTimeout, "KM-VAL-4002"},
		{ErrIncrOverflow, "KM-VAL-4003"},

		{ErrStreamIDFormat, "KM-STRM-4000"},
		{ErrStreamIDZero, "KM-STRM-4001"},
		{ErrStreamIDOrder, "KM-STRM-4002"},
		{ErrStreamIDDuplicate, "KM-STRM-4090"},

		{ErrExecWithoutMulti, "KM-TX-4000"},
		{ErrDiscardWithoutMulti, "KM-TX-4001"},
		{ErrNestedMulti, "KM-TX-4002"},

		{ErrInternal, "KM-SYS-5000"},
		{ErrCanceled, "KM-SYS-4990"},
		{ErrRateLimited, "KM-SYS-4290"},
		{ErrMaxClients, "KM-SYS-5030"},
		{ErrNotReady, "KM-SYS-5031"},

		{ErrUnauthorized, "KM-AUTH-4010"},
		{ErrForbidden, "KM-AUTH-4030"},
		{ErrBadRequest, "KM-ARG-4000"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Error code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Error message should not be empty")
			}
			if tt.err.Prefix == "" {
				t.Error("Error prefix should not be empty")
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := ErrInternal.
		WithDetails("command: SET").
		WithCause(cause)

	if err.Code != "KM-SYS-5000" {
		t.Errorf("Code = %q, want %q", err.Code, "KM-SYS-5000")
	}
	if err.Details != "command: SET" {
		t.Errorf("Details = %q", err.Details)
	}
	if err.Cause != cause {
		t.Error("Cause should be preserved")
	}
	if !errors.Is(err, ErrInternal) {
		t.Error("errors.Is should work after chaining")
	}
}
