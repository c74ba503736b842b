package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
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

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode attaches an error code, preserving the cause chain
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeDataMismatch  = "DATA_MISMATCH"
	CodeModelFit      = "MODEL_FIT"
	CodeIO            = "IO_ERROR"
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeInternalError = "INTERNAL_ERROR"
)

// Common error constructors

// DataMismatch marks alignment or labeling failures detected before modeling
func DataMismatch(err error) error {
	return WithCode(CodeDataMismatch, err)
}

// ModelFit marks an opaque failure from the statistical engine; it is
// propagated as-is and never retried or interpreted
func ModelFit(err error) error {
	return WithCode(CodeModelFit, err)
}

// IOError marks unreadable inputs or an unwritable output location
func IOError(err error) error {
	return WithCode(CodeIO, err)
}

// ConfigInvalid marks a bad parameter block
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}
