// Package apperr defines the error contract between the service layer and
// transport: every failure carries a machine-readable kind plus an HTTP
// status hint so handlers can map errors without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindAlreadyExists      Kind = "ALREADY_EXISTS"
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindInactiveAccount    Kind = "INACTIVE_ACCOUNT"
	KindForbidden          Kind = "FORBIDDEN"
	KindHashFailure        Kind = "HASH_FAILURE"
	KindRegistrationFailed Kind = "REGISTRATION_FAILED"
	KindTokenMissing       Kind = "TOKEN_MISSING"
	KindTokenInvalid       Kind = "TOKEN_INVALID"
	KindRefreshMismatch    Kind = "REFRESH_MISMATCH"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Repository-level sentinels. The service maps these to kinds with
// request context attached.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with the default status for the kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Status: statusFor(kind), Message: message}
}

// Wrap attaches an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Status: statusFor(kind), Message: message, Err: err}
}

// KindOf extracts the kind, defaulting to KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf extracts the HTTP status hint, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// MessageOf extracts the caller-facing message.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

func statusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAlreadyExists:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidCredentials, KindTokenMissing, KindTokenInvalid, KindRefreshMismatch:
		return http.StatusUnauthorized
	case KindInactiveAccount, KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
