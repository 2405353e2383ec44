package errors

import (
	"errors"
	"fmt"
)

// Error types for the feature pipeline
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeExternal   ErrorType = "external"
	ErrorTypeArtifact   ErrorType = "artifact"
	ErrorTypeConfig     ErrorType = "config"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewExternalError(service, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeExternal,
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("%s service error: %s", service, message),
		Retryable: true,
		Details:   map[string]interface{}{"service": service},
	}
}

// NewArtifactLoadError reports a missing or malformed artifact table.
// The process cannot serve when one of these is returned at cold start.
func NewArtifactLoadError(table, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeArtifact,
		Code:      "ARTIFACT_LOAD_FAILED",
		Message:   fmt.Sprintf("artifact table %q: %s", table, message),
		Retryable: false,
		Details:   map[string]interface{}{"table": table},
	}
}

func NewConfigError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeConfig,
		Code:      "INVALID_CONFIG",
		Message:   message,
		Retryable: false,
	}
}

// Predefined common errors
var (
	ErrNilRequest = NewValidationError("NIL_REQUEST", "request is required")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
