package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrExtraction           = errors.New("extraction failed")
	ErrToolchainUnavailable = errors.New("toolchain unavailable")
	ErrInvalidConfig        = errors.New("invalid config")
)

// Error codes carried by AppError.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeExtraction   = "EXTRACTION_FAILED"
	CodeToolchain    = "TOOLCHAIN_UNAVAILABLE"
	CodeConfig       = "CONFIG_ERROR"
	CodeNotFound     = "NOT_FOUND"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// InvalidInputError reports an input path that is neither a PDF nor a directory.
func InvalidInputError(path string) error {
	return NewAppError(CodeInvalidInput, fmt.Sprintf("path %s is not a PDF or directory of PDFs", path), ErrInvalidInput)
}

// ExtractionError wraps a single strategy failure.
func ExtractionError(strategy string, cause error) error {
	return NewAppError(CodeExtraction, strategy, errors.Join(ErrExtraction, cause))
}

// ToolchainError reports a missing external capability such as tesseract or inotify.
func ToolchainError(tool string, cause error) error {
	if cause == nil {
		return NewAppError(CodeToolchain, tool, ErrToolchainUnavailable)
	}
	return NewAppError(CodeToolchain, tool, errors.Join(ErrToolchainUnavailable, cause))
}
