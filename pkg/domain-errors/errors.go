// Package domainerrors defines code-carrying errors for the spending registry.
//
// Every rejected operation surfaces one of these codes to the caller; codes are
// never downgraded to a generic failure on the way out. Stores return sentinel
// errors (pkg/platform/sentinel) and services translate them into these codes,
// so transport layers only ever deal with one error shape.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies why an operation was rejected.
type Code string

const (
	// CodeUnauthorized - caller is not the registry authority.
	CodeUnauthorized Code = "unauthorized"
	// CodeAlreadyRegistered - entity identifier already exists.
	CodeAlreadyRegistered Code = "already_registered"
	// CodeNotFound - referenced entity, record, or request does not exist.
	CodeNotFound Code = "not_found"
	// CodeInactive - entity has been deactivated.
	CodeInactive Code = "inactive"
	// CodeAlreadyInactive - deactivation of an already deactivated entity.
	CodeAlreadyInactive Code = "already_inactive"
	// CodeInvalidAmount - amount fails the operation's sign constraint.
	CodeInvalidAmount Code = "invalid_amount"
	// CodeInvalidRange - pagination offset or limit out of range.
	CodeInvalidRange Code = "invalid_range"
	// CodeNotPending - fund request already reached a terminal status.
	CodeNotPending Code = "not_pending"
	// CodeInsufficientFunds - custody cannot cover the requested release.
	CodeInsufficientFunds Code = "insufficient_funds"
	// CodeOverflow - balance arithmetic would wrap.
	CodeOverflow Code = "overflow"

	// CodeBadRequest - malformed input at the transport edge.
	CodeBadRequest Code = "bad_request"
	// CodeInternal - unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the transport layer responds with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyRegistered, CodeAlreadyInactive, CodeNotPending, CodeInactive:
		return http.StatusConflict
	case CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case CodeInvalidAmount, CodeInvalidRange, CodeOverflow, CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
