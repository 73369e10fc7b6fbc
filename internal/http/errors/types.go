// Package errors defines the HTTP-facing error envelope: a stable
// machine code, a human message, and the status to send. Login failures
// deliberately share one opaque code so callers cannot probe provider
// internals through error detail.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the standard application error shape at the HTTP edge.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail returns a copy with extra detail, keeping the base values
// immutable.
func (e *AppError) WithDetail(detail string) *AppError {
	ne := *e
	ne.Detail = detail
	return &ne
}

// WithCause returns a copy carrying the original error for logs. The
// cause is never serialized to the client.
func (e *AppError) WithCause(err error) *AppError {
	ne := *e
	ne.Err = err
	return &ne
}

// FromError normalizes any error to an AppError, defaulting to an
// internal server error that keeps the cause for logging.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request is malformed or missing required parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrAuthFailed is the single opaque outcome for every failed login
	// attempt, whatever the internal reason.
	ErrAuthFailed = &AppError{
		Code:       "AUTHENTICATION_FAILED",
		Message:    "Authentication failed.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidIdentity = &AppError{
		Code:       "INVALID_IDENTITY",
		Message:    "The supplied identity claim is malformed.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnauthenticated = &AppError{
		Code:       "UNAUTHENTICATED",
		Message:    "Authentication required.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrCredentialInvalid = &AppError{
		Code:       "CREDENTIAL_INVALID",
		Message:    "The credential is invalid or malformed.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrCredentialExpired = &AppError{
		Code:       "CREDENTIAL_EXPIRED",
		Message:    "The credential has expired. Log in again.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUserInactive = &AppError{
		Code:       "USER_INACTIVE",
		Message:    "This account is deactivated.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUnknownProvider = &AppError{
		Code:       "UNKNOWN_PROVIDER",
		Message:    "Unknown identity provider.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Too many requests. Slow down.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal server error.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
