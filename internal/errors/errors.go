package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"killcurve/domain/core"
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

// Wrap wraps an error with additional context. The code of an inner AppError
// is kept; domain sentinels are mapped to their code; anything else is internal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    codeOf(err),
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

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the outermost AppError code in the chain, the code of a
// known domain error, or "UNKNOWN".
func GetCode(err error) string {
	if err == nil {
		return "UNKNOWN"
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if code, ok := domainCode(err); ok {
		return code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"

	// Input-file rejections
	CodeNormalizedData = "NORMALIZED_DATA"
	CodeEmptySeries    = "EMPTY_SERIES"
	CodeUnknownAssay   = "UNKNOWN_ASSAY"
	CodeMissingSheet   = "MISSING_SHEET"
)

func codeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if code, ok := domainCode(err); ok {
		return code
	}
	return CodeInternalError
}

func domainCode(err error) (string, bool) {
	switch {
	case stderrors.Is(err, core.ErrNormalizedData):
		return CodeNormalizedData, true
	case stderrors.Is(err, core.ErrEmptySeries):
		return CodeEmptySeries, true
	case stderrors.Is(err, core.ErrUnknownAssayType):
		return CodeUnknownAssay, true
	case stderrors.Is(err, core.ErrMissingSheet), stderrors.Is(err, core.ErrMissingColumn):
		return CodeMissingSheet, true
	case stderrors.Is(err, core.ErrUnknownSample):
		return CodeInvalidInput, true
	case stderrors.Is(err, core.ErrNotFound):
		return CodeNotFound, true
	}
	return "", false
}

// HTTPStatus maps an error code to the status the API answers with.
func HTTPStatus(code string) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidationError, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNormalizedData, CodeEmptySeries, CodeUnknownAssay, CodeMissingSheet:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
