package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType classifies application errors for logging and boundary mapping.
type ErrorType string

const (
	ErrTypeSchema     ErrorType = "SCHEMA"
	ErrTypeFormat     ErrorType = "FORMAT"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// SchemaError reports that an uploaded table is missing required columns for
// the selected source type. It is user-facing and always names both the
// missing columns and the full expected column set.
type SchemaError struct {
	Source   string
	Missing  []string
	Expected []string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns in %s file: [%s]; expected columns: [%s]",
		e.Source,
		strings.Join(e.Missing, ", "),
		strings.Join(e.Expected, ", "))
}

// NewSchemaError creates a schema error for a source type
func NewSchemaError(source string, missing, expected []string) *SchemaError {
	return &SchemaError{
		Source:   source,
		Missing:  missing,
		Expected: expected,
	}
}

// FormatError reports that an uploaded file could not be read as tabular data
// at all. The user-facing message stays generic; the parser's error is kept
// as the cause for logging.
type FormatError struct {
	Message string
	Cause   error
}

// Error implements the error interface
func (e *FormatError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "file could not be parsed as tabular data"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap allows errors.Is and errors.As to reach the parser error
func (e *FormatError) Unwrap() error {
	return e.Cause
}

// NewFormatError creates a format error
func NewFormatError(message string, cause error) *FormatError {
	return &FormatError{
		Message: message,
		Cause:   cause,
	}
}

// IsSchemaError reports whether err is (or wraps) a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return stderrors.As(err, &schemaErr)
}

// IsFormatError reports whether err is (or wraps) a FormatError.
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return stderrors.As(err, &formatErr)
}

// Helper constructors for common error types

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}
