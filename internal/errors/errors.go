// FilePath: internal/errors/errors.go
package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Error types
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeSubscription ErrorType = "subscription"
	ErrorTypeFetch        ErrorType = "fetch"
	ErrorTypeDecode       ErrorType = "decode"
	ErrorTypeCommand      ErrorType = "command"
	ErrorTypeDatabase     ErrorType = "database"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeInternal     ErrorType = "internal"
)

// APIError represents a structured API error
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Details   any       `json:"details,omitempty"`
	err       error     // Internal error for logging
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the internal error for errors.Is/As chains.
func (e *APIError) Unwrap() error {
	return e.err
}

// WithRequestID adds a request ID to the error
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithDetails adds additional details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewConfigError creates an error for a missing or invalid configuration value
func NewConfigError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeConfig,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewSubscriptionError creates an error for a transport failure on a live channel
func NewSubscriptionError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeSubscription,
		Message: msg,
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

// NewFetchError creates an error for a failed batch query
func NewFetchError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeFetch,
		Message: msg,
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

// NewDecodeError creates an error for a malformed record
func NewDecodeError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeDecode,
		Message: msg,
		Code:    http.StatusUnprocessableEntity,
		err:     err,
	}
}

// NewCommandError creates an error for a failed device command
func NewCommandError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeCommand,
		Message: msg,
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeDatabase,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: msg,
		Code:    http.StatusNotFound,
		err:     err,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsFetch checks if an error is a Fetch error
func IsFetch(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Type == ErrorTypeFetch
	}
	return false
}

// IsCommand checks if an error is a Command error
func IsCommand(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Type == ErrorTypeCommand
	}
	return false
}
