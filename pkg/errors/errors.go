// Package errors defines unified error types for LLM routing operations.
// All backend-specific errors are mapped to these standard error types.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// LLMError represents a standardized error from an LLM backend.
// It carries enough context (backend, model, status) to diagnose a failure
// without re-running the request.
type LLMError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Backend    string `json:"backend"`
	Model      string `json:"model"`
	Retryable  bool   `json:"-"`

	// RetryAfter is the cooldown the backend asked for on a rate limit.
	// Zero means the backend did not say.
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	return fmt.Sprintf("[%s] %s (backend=%s, model=%s, code=%d)",
		e.Type, e.Message, e.Backend, e.Model, e.StatusCode)
}

// HTTPStatusCode returns the appropriate HTTP status code for the error.
func (e *LLMError) HTTPStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// Common error types as constants for consistency.
const (
	TypeAuthentication     = "authentication_error"
	TypeRateLimit          = "rate_limit_error"
	TypeInvalidRequest     = "invalid_request_error"
	TypeNotFound           = "not_found_error"
	TypeTimeout            = "timeout_error"
	TypeServiceUnavailable = "service_unavailable_error"
	TypeInternalError      = "internal_error"
	TypeContextLength      = "context_length_exceeded"
	TypeContentPolicy      = "content_policy_violation"
	TypeMalformedResponse  = "malformed_response"
	TypeNoModelAvailable   = "no_model_available"
)

// NewAuthenticationError creates an authentication error (401).
func NewAuthenticationError(backend, model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
		Type:       TypeAuthentication,
		Backend:    backend,
		Model:      model,
		Retryable:  false,
	}
}

// NewRateLimitError creates a rate limit error (429).
func NewRateLimitError(backend, model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusTooManyRequests,
		Message:    message,
		Type:       TypeRateLimit,
		Backend:    backend,
		Model:      model,
		Retryable:  true,
	}
}

// NewInvalidRequestError creates an invalid request error (400).
func NewInvalidRequestError(backend, model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Type:       TypeInvalidRequest,
		Backend:    backend,
		Model:      model,
		Retryable:  false,
	}
}

// NewNotFoundError creates a not found error (404).
func NewNotFoundError(backend, model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusNotFound,
		Message:    message,
		Type:       TypeNotFound,
		Backend:    backend,
		Model:      model,
		Retryable:  false,
	}
}

// NewTimeoutError creates a timeout error (408).
func NewTimeoutError(backend, model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusRequestTimeout,
		Message:    message,
		Type:       TypeTimeout,
		Backend:    backend,
		Model:      model,
		Retryable:  true,
	}
}

// NewServiceUnavailableError creates a service unavailable error (503).
func NewServiceUnavailableError(backend, model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusServiceUnavailable,
		Message:    message,
		Type:       TypeServiceUnavailable,
		Backend:    backend,
		Model:      model,
		Retryable:  true,
	}
}

// NewInternalError creates an internal server error (500).
func NewInternalError(backend, model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Type:       TypeInternalError,
		Backend:    backend,
		Model:      model,
		Retryable:  false,
	}
}

// NewContextLengthError creates a context length exceeded error (413).
// Free-tier endpoints report this when the request outgrows the model's
// input window; the caller escalates to the paid tier.
func NewContextLengthError(backend, model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusRequestEntityTooLarge,
		Message:    message,
		Type:       TypeContextLength,
		Backend:    backend,
		Model:      model,
		Retryable:  true,
	}
}

// NewContentPolicyError creates a content policy violation error (400).
func NewContentPolicyError(backend, model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Type:       TypeContentPolicy,
		Backend:    backend,
		Model:      model,
		Retryable:  true,
	}
}

// NewMalformedResponseError creates a malformed response error.
// Raised when no JSON object can be recovered from a model reply.
func NewMalformedResponseError(model, message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    message,
		Type:       TypeMalformedResponse,
		Model:      model,
		Retryable:  false,
	}
}

// NewNoModelAvailableError creates the terminal error for an empty
// candidate list.
func NewNoModelAvailableError(message string) *LLMError {
	return &LLMError{
		StatusCode: http.StatusServiceUnavailable,
		Message:    message,
		Type:       TypeNoModelAvailable,
		Retryable:  false,
	}
}
