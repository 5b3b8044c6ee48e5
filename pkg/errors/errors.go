// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for convo.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies convo errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the request input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeConfig indicates a required setting is missing or invalid.
	// Fatal at startup; the process must not accept traffic.
	CodeConfig ErrorCode = "CONFIG_ERROR"

	// CodeProvider indicates an upstream weather/news call failed after retries.
	CodeProvider ErrorCode = "PROVIDER_ERROR"

	// CodeNotFound indicates a resource was not found (e.g. geocoding miss).
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeModelProtocol indicates a model response could not be parsed as
	// either plain text or a well-formed capability call.
	CodeModelProtocol ErrorCode = "MODEL_PROTOCOL"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeLLMError indicates a model provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"
)

// Error is a typed error with context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type Error struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Recoverable bool
	StatusCode  int // For HTTP responses
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new Error with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithStatusCode overrides the HTTP status this error maps to.
func (e *Error) WithStatusCode(status int) *Error {
	e.StatusCode = status
	return e
}

// WithRecoverable sets whether the error can be recovered from.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

// AsError attempts to convert an error to a typed *Error.
// Returns the error unchanged if it is one, or wraps it as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*Error); ok {
		return ce
	}
	return New(CodeInternal, "wrapped error", err)
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeInvalidInput:
		return 400
	default:
		return 500
	}
}
