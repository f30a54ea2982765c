// Package domain defines the core domain models for keymesh.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RESP error prefixes.
const (
	PrefixErr       = "ERR"
	PrefixWrongType = "WRONGTYPE"
)

// DomainError represents an engine error with a structured error code.
//
// Prefix is the first word of the RESP error line ("ERR" unless the
// protocol reserves a dedicated prefix, as it does for WRONGTYPE).
type DomainError struct {
	Code    string // Error code (e.g., "KM-TYPE-4000")
	Prefix  string // RESP error prefix
	Message string // Human-readable message, sent to clients
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the ERR prefix.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Prefix:  PrefixErr,
		Message: message,
	}
}

// WithMessage returns a copy of the error with a different client message.
// The code is kept so errors.Is still matches the family.
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Prefix:  e.Prefix,
		Message: fmt.Sprintf(format, args...),
		Details: e.Details,
		Cause:   e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Prefix:  e.Prefix,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Prefix:  e.Prefix,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// RESP returns the error line as sent on the wire, without the leading '-'.
func (e *DomainError) RESP() string {
	prefix := e.Prefix
	if prefix == "" {
		prefix = PrefixErr
	}
	return prefix + " " + e.Message
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Protocol Errors (PROTO)
// ============================================================================

var (
	// ErrWrongArity indicates a wrong number of arguments for a command.
	ErrWrongArity = NewDomainError("KM-PROTO-4000", "wrong number of arguments")

	// ErrSyntax indicates a malformed option list.
	ErrSyntax = NewDomainError("KM-PROTO-4001", "syntax error")

	// ErrUnknownCommand indicates the command name is not supported.
	ErrUnknownCommand = NewDomainError("KM-PROTO-4040", "unknown command")

	// ErrUnknownOption indicates an unsupported command option.
	ErrUnknownOption = NewDomainError("KM-PROTO-4002", "unknown option")
)

// ============================================================================
// Type Errors (TYPE)
// ============================================================================

// ErrWrongType indicates an operation against a value of the wrong variant.
var ErrWrongType = &DomainError{
	Code:    "KM-TYPE-4000",
	Prefix:  PrefixWrongType,
	Message: "Operation against a key holding the wrong kind of value",
}

// ============================================================================
// Value Errors (VAL)
// ============================================================================

var (
	// ErrNotInteger indicates a non-numeric or out of range integer.
	ErrNotInteger = NewDomainError("KM-VAL-4000", "value is not an integer or out of range")

	// ErrInvalidExpire indicates a malformed or non-positive expiry.
	ErrInvalidExpire = NewDomainError("KM-VAL-4001", "invalid expire time")

	// ErrInvalidTimeout indicates a malformed or negative blocking timeout.
	ErrInvalidTimeout = NewDomainError("KM-VAL-4002", "timeout is not a float or out of range")

	// ErrIncrOverflow indicates an increment would overflow int64.
	ErrIncrOverflow = NewDomainError("KM-VAL-4003", "increment or decrement would overflow")
)

// ============================================================================
// Stream Errors (STRM)
// ============================================================================

var (
	// ErrStreamIDFormat indicates a malformed stream entry ID.
	ErrStreamIDFormat = NewDomainError("KM-STRM-4000", "Invalid stream ID specified as stream command argument")

	// ErrStreamIDZero indicates the reserved 0-0 ID was used.
	ErrStreamIDZero = NewDomainError("KM-STRM-4001", "The ID specified in XADD must be greater than 0-0")

	// ErrStreamIDOrder indicates a non-monotonic stream ID.
	ErrStreamIDOrder = NewDomainError("KM-STRM-4002", "The ID specified in XADD is equal or smaller than the target stream top item")

	// ErrStreamIDDuplicate indicates the ID equals the current top item.
	// It shares the client message with ErrStreamIDOrder.
	ErrStreamIDDuplicate = NewDomainError("KM-STRM-4090", "The ID specified in XADD is equal or smaller than the target stream top item")
)

// ============================================================================
// Transaction Errors (TX)
// ============================================================================

var (
	// ErrExecWithoutMulti indicates EXEC outside a transaction.
	ErrExecWithoutMulti = NewDomainError("KM-TX-4000", "EXEC without MULTI")

	// ErrDiscardWithoutMulti indicates DISCARD outside a transaction.
	ErrDiscardWithoutMulti = NewDomainError("KM-TX-4001", "DISCARD without MULTI")

	// ErrNestedMulti indicates MULTI inside a transaction.
	ErrNestedMulti = NewDomainError("KM-TX-4002", "MULTI calls can not be nested")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an unexpected fault while executing a command.
	ErrInternal = NewDomainError("KM-SYS-5000", "internal error")

	// ErrCanceled indicates a blocked operation was canceled.
	ErrCanceled = NewDomainError("KM-SYS-4990", "operation canceled")

	// ErrRateLimited indicates too many commands from one client address.
	ErrRateLimited = NewDomainError("KM-SYS-4290", "rate limit exceeded")

	// ErrMaxClients indicates the server refused a connection.
	ErrMaxClients = NewDomainError("KM-SYS-5030", "max number of clients reached")

	// ErrNotReady indicates the server is starting or shutting down.
	ErrNotReady = NewDomainError("KM-SYS-5031", "server not ready")
)

// ============================================================================
// Admin Endpoint Errors (AUTH, ARG)
// ============================================================================

var (
	// ErrUnauthorized indicates a missing or wrong admin token.
	ErrUnauthorized = NewDomainError("KM-AUTH-4010", "authentication required")

	// ErrForbidden indicates the peer address is not allowed.
	ErrForbidden = NewDomainError("KM-AUTH-4030", "access denied")

	// ErrBadRequest indicates a malformed admin request body.
	ErrBadRequest = NewDomainError("KM-ARG-4000", "invalid request")
)

// ArityError returns the wrong-arity error for the named command.
func ArityError(name string) *DomainError {
	return ErrWrongArity.WithMessage("wrong number of arguments for '%s' command", strings.ToLower(name))
}

// UnknownCommandError returns the unknown-command error for the named command.
func UnknownCommandError(name string) *DomainError {
	return ErrUnknownCommand.WithMessage("unknown command '%s'", name)
}
