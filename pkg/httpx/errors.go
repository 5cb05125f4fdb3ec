package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeConflict        = "conflict"
	ErrorCodeTooManyRequests = "too_many_requests"
	ErrorCodeServerError     = "server_error"
)

// Error is a client-visible error response. It implements the error
// interface and knows how to write itself to an HTTP response, so handlers
// can keep their failure paths to one line.
type Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is a stable machine-readable error code
	Code string `json:"error"`

	// Message is a human-readable description. Authentication and
	// authorization failures must keep this generic: which specific check
	// failed is never revealed to the client.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes this Error to an HTTP response writer.
func (e *Error) WriteError(w http.ResponseWriter) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   e.Code,
		"message": e.Message,
	})
}

var (
	// ErrInvalidRequest is returned when the request body is malformed or a
	// field fails validation.
	ErrInvalidRequest = &Error{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeInvalidRequest,
		Message:    "the request is malformed or missing required parameters",
	}

	// ErrUnauthorized covers every credential failure: unknown username,
	// wrong password. One message for all of them.
	ErrUnauthorized = &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeUnauthorized,
		Message:    "invalid credentials",
	}

	// ErrNotFound is returned for missing resources, including resources the
	// caller does not own.
	ErrNotFound = &Error{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeNotFound,
		Message:    "resource not found",
	}

	// ErrConflict is returned when a uniqueness constraint rejects a write.
	ErrConflict = &Error{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeConflict,
		Message:    "the resource conflicts with an existing one",
	}

	// ErrTooManyRequests is returned by the rate limiter.
	ErrTooManyRequests = &Error{
		StatusCode: http.StatusTooManyRequests,
		Code:       ErrorCodeTooManyRequests,
		Message:    "rate limit exceeded",
	}

	// ErrServerError hides unexpected failures; details go to the log only.
	ErrServerError = &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeServerError,
		Message:    "internal server error",
	}
)

// NewError creates an Error with a custom message while keeping the
// standard response shape.
func NewError(statusCode int, code, message string) *Error {
	return &Error{StatusCode: statusCode, Code: code, Message: message}
}

// WriteBearerError writes an RFC 6750 style unauthorized response,
// signalling that bearer authentication is required.
func WriteBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   ErrorCodeUnauthorized,
		"message": desc,
	})
}
