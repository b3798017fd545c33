// Package domain defines the core domain models for authsession.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a session-layer error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "AS-AUTH-4010")
	Message string // Generic human-readable message
	Details string // Server-provided or contextual message (optional)
	Status  int    // HTTP status that produced the error (0 if none)
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

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithStatus returns a copy of the error carrying the HTTP status code.
func (e *DomainError) WithStatus(status int) *DomainError {
	c := *e
	c.Status = status
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
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

// UserMessage returns the message that should be shown to a person.
// Server-provided details win over the generic message; non-domain errors
// fall back to their Error() text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		if de.Details != "" {
			return de.Details
		}
		return de.Message
	}
	return err.Error()
}

// StatusCode returns the HTTP status attached to err, or 0.
func StatusCode(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Status
	}
	return 0
}

// ============================================================================
// Request Errors
// ============================================================================

var (
	// ErrValidation indicates a request was rejected before transmission.
	ErrValidation = NewDomainError("AS-REQ-4000", "validation failed")

	// ErrRequestFailed indicates the backend returned an error envelope or a non-2xx status.
	ErrRequestFailed = NewDomainError("AS-REQ-4020", "request failed")

	// ErrHTTP indicates a business request through the authorized pipeline failed.
	ErrHTTP = NewDomainError("AS-REQ-4021", "http request failed")

	// ErrUnexpected indicates a transport or decoding failure.
	ErrUnexpected = NewDomainError("AS-REQ-5000", "An unexpected error occurred")

	// ErrEnvelopeShape indicates a response body matched neither envelope variant.
	ErrEnvelopeShape = NewDomainError("AS-REQ-5001", "unrecognized response envelope")
)

// ============================================================================
// Session Errors
// ============================================================================

var (
	// ErrNoSession indicates logout was attempted without a stored access token.
	ErrNoSession = NewDomainError("AS-SESS-4010", "No access token found")

	// ErrNoRefreshToken indicates refresh was attempted without a refresh token.
	ErrNoRefreshToken = NewDomainError("AS-SESS-4011", "No refresh token available")

	// ErrSessionExpired indicates an expired access token could not be refreshed.
	ErrSessionExpired = NewDomainError("AS-SESS-4012", "Session expired. Please log in again.")

	// ErrAuthenticationFailed indicates the server rejected the access token.
	ErrAuthenticationFailed = NewDomainError("AS-SESS-4013", "Authentication failed. Please log in again.")

	// ErrLoginRequired indicates a protected operation was attempted without a session.
	ErrLoginRequired = NewDomainError("AS-SESS-4014", "login required")

	// ErrSessionPending indicates a login or registration is still in flight.
	ErrSessionPending = NewDomainError("AS-SESS-4090", "session operation in progress")
)

// ============================================================================
// Storage Errors
// ============================================================================

var (
	// ErrStoreUnavailable indicates the token store could not be read or written.
	ErrStoreUnavailable = NewDomainError("AS-STOR-5030", "token store unavailable")
)
