// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed error handling with rich context for MAESD.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies MAESD errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeToolFailure indicates an external tool invocation failed.
	CodeToolFailure ErrorCode = "TOOL_FAILURE"

	// CodeParseError indicates model or tool output could not be parsed.
	CodeParseError ErrorCode = "PARSE_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates rate limiting was triggered.
	CodeRateLimit ErrorCode = "RATE_LIMITED"

	// CodeBudgetExceeded indicates the configured spend ceiling was reached.
	CodeBudgetExceeded ErrorCode = "BUDGET_EXCEEDED"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeMemoryError indicates a memory system error.
	CodeMemoryError ErrorCode = "MEMORY_ERROR"

	// CodeLLMError indicates an LLM provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"
)

// MAESDError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type MAESDError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int
}

// Error implements the error interface.
func (e *MAESDError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *MAESDError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *MAESDError) MarshalJSON() ([]byte, error) {
	type Alias MAESDError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new MAESDError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *MAESDError {
	return &MAESDError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *MAESDError) WithContext(key string, value interface{}) *MAESDError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *MAESDError) WithAttribute(key, value string) *MAESDError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *MAESDError) WithRecoverable(recoverable bool) *MAESDError {
	e.Recoverable = recoverable
	return e
}

// AsMAESDError attempts to convert an error to a MAESDError.
// Returns the error as MAESDError if it is one, or wraps it otherwise.
func AsMAESDError(err error) *MAESDError {
	if err == nil {
		return nil
	}
	if me, ok := err.(*MAESDError); ok {
		return me
	}
	return New(CodeInternal, "wrapped error", err)
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *MAESDError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// codeToStatusCode maps error codes to HTTP-style status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeInvalidInput, CodeParseError:
		return 400
	case CodeTimeout:
		return 408
	case CodeRateLimit, CodeBudgetExceeded:
		return 429
	default:
		return 500
	}
}
