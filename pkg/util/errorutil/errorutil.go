package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes for the sync core taxonomy.
const (
	CodeTransientFetch     = "TRANSIENT_FETCH"
	CodeAuthRejected       = "AUTH_REJECTED"
	CodeMalformedResponse  = "MALFORMED_RESPONSE"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeNotFound           = "NOT_FOUND"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error

	// RetryAfter is a hint carried by rate-limit responses. Zero when
	// the remote gave none.
	RetryAfter time.Duration
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewTransientFetch marks a remote failure as retryable within a cycle.
func NewTransientFetch(message string, err error) *DomainError {
	return &DomainError{
		Code:       CodeTransientFetch,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewRateLimited is a transient fetch error carrying the remote's
// Retry-After hint.
func NewRateLimited(retryAfter time.Duration) *DomainError {
	return &DomainError{
		Code:       CodeTransientFetch,
		Message:    "remote rate limit",
		HTTPStatus: http.StatusBadGateway,
		RetryAfter: retryAfter,
	}
}

// NewAuthRejected reports rejected remote credentials. Never retried.
func NewAuthRejected(message string) *DomainError {
	return NewDomainError(CodeAuthRejected, message, http.StatusUnauthorized, nil)
}

// NewMalformedResponse reports an undecodable remote payload.
func NewMalformedResponse(message string, err error) *DomainError {
	return &DomainError{
		Code:       CodeMalformedResponse,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewStorageUnavailable reports a failed store operation; callers must
// not assume partial success.
func NewStorageUnavailable(err error) *DomainError {
	return &DomainError{
		Code:       CodeStorageUnavailable,
		Message:    "local store unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsTransient reports whether err should be retried within a cycle.
func IsTransient(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == CodeTransientFetch
}

// IsNotFound reports whether err is the non-fatal missing-record case.
func IsNotFound(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == CodeNotFound
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
