package errors

import (
	goerrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeGateway indicates the messaging provider rejected a request
	// or was unreachable
	ErrorTypeGateway ErrorType = "GATEWAY"

	// ErrorTypePersistence indicates a data-store read or write failure
	ErrorTypePersistence ErrorType = "PERSISTENCE"

	// ErrorTypeConfiguration indicates required configuration is missing
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// HTTPStatus carries the provider's HTTP status for gateway errors.
	HTTPStatus int
	Err        error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewGatewayError creates an error for a provider rejection. httpStatus is the
// status the provider responded with, or 0 when it was unreachable.
func NewGatewayError(message string, httpStatus int, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeGateway,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// NewPersistenceError creates an error for a data-store failure
func NewPersistenceError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypePersistence,
		Message: message,
		Err:     err,
	}
}

// NewConfigurationError creates an error for missing configuration
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// IsType reports whether err is an AppError of the given type. Gateway and
// persistence failures must never be conflated, so callers branch on this.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if goerrors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}
