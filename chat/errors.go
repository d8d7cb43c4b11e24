package chat

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes a session error.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// Connectivity errors
	ErrorConnection  // transport failed or dropped unexpectedly
	ErrorUnreachable // retry budget exhausted; no further automatic attempts

	// Authentication errors
	ErrorMissingCredential // no token available from the credential source
	ErrorAuthRejected      // server refused the credential

	// Room / server-reported errors
	ErrorRoom // generic server-reported room error, message passed through

	// Validation errors; these never reach the network
	ErrorNotConnected
	ErrorAuthRequired
	ErrorNoRoom
	ErrorEmptyMessage

	ErrorSerialization
	ErrorClosed
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorConnection:
		return "connection_error"
	case ErrorUnreachable:
		return "unreachable"
	case ErrorMissingCredential:
		return "missing_credential"
	case ErrorAuthRejected:
		return "auth_rejected"
	case ErrorRoom:
		return "room_error"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorAuthRequired:
		return "auth_required"
	case ErrorNoRoom:
		return "no_room"
	case ErrorEmptyMessage:
		return "empty_message"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown_code_%d", int(e))
	}
}

// ChatError is a structured error with code and context. The Message is
// UI-displayable as-is.
type ChatError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *ChatError) Unwrap() error {
	return e.Wrapped
}

// Is matches on error code.
func (e *ChatError) Is(target error) bool {
	t, ok := target.(*ChatError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a ChatError with the given code and message.
func NewError(code ErrorCode, message string) *ChatError {
	return &ChatError{Code: code, Message: message}
}

// WrapError wraps an existing error with a ChatError.
func WrapError(code ErrorCode, message string, err error) *ChatError {
	return &ChatError{Code: code, Message: message, Wrapped: err}
}

func codeOf(err error) (ErrorCode, bool) {
	var ce *ChatError
	if !errors.As(err, &ce) {
		return ErrorUnknown, false
	}
	return ce.Code, true
}

// IsConnectivityError reports whether err belongs to the connectivity
// category: the UI should show "temporarily offline".
func IsConnectivityError(err error) bool {
	code, ok := codeOf(err)
	return ok && (code == ErrorConnection || code == ErrorUnreachable)
}

// IsAuthError reports whether err belongs to the authentication category:
// recovery requires external action such as logging in again.
func IsAuthError(err error) bool {
	code, ok := codeOf(err)
	return ok && (code == ErrorMissingCredential || code == ErrorAuthRejected)
}

// IsRoomError reports whether err is a server-reported room error.
func IsRoomError(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrorRoom
}

// IsValidationError reports whether err is a local precondition failure that
// never reached the network.
func IsValidationError(err error) bool {
	code, ok := codeOf(err)
	return ok && (code == ErrorNotConnected || code == ErrorAuthRequired ||
		code == ErrorNoRoom || code == ErrorEmptyMessage)
}
