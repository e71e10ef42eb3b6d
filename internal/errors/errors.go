package errors

import (
	"errors"
	"fmt"
)

// DichotomyError is the structured error type of the dichotomy application.
// It carries a stable code, a category derived from the code, and an optional
// hint for the user.
type DichotomyError struct {
	// Code is the unique error code (e.g., "ERR_302_EVALUATION_FATAL").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *DichotomyError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *DichotomyError) Unwrap() error {
	return e.Cause
}

// Is matches another DichotomyError by code.
func (e *DichotomyError) Is(target error) bool {
	if t, ok := target.(*DichotomyError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *DichotomyError) WithDetail(key, value string) *DichotomyError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *DichotomyError) WithSuggestion(suggestion string) *DichotomyError {
	e.Suggestion = suggestion
	return e
}

// New creates a DichotomyError. Category, severity and the retryable flag are
// derived from the code.
func New(code string, message string, cause error) *DichotomyError {
	category, severity, retryable := classify(code)
	return &DichotomyError{
		Code:      code,
		Message:   message,
		Category:  category,
		Severity:  severity,
		Cause:     cause,
		Retryable: retryable,
	}
}

// Wrap creates a DichotomyError from an existing error, reusing its message.
func Wrap(code string, err error) *DichotomyError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError reports an invalid configuration.
func ConfigError(message string, cause error) *DichotomyError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError reports a missing or unreadable file.
func IOError(message string, cause error) *DichotomyError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ValidationError reports bad user input.
func ValidationError(message string, cause error) *DichotomyError {
	return New(ErrCodeInvalidInput, message, cause)
}

func InternalError(message string, cause error) *DichotomyError {
	return New(ErrCodeInternal, message, cause)
}

// find returns the outermost DichotomyError in the chain of err.
func find(err error) (*DichotomyError, bool) {
	var de *DichotomyError
	ok := errors.As(err, &de)
	return de, ok
}

// IsRetryable reports whether err is a DichotomyError with Retryable set.
func IsRetryable(err error) bool {
	de, ok := find(err)
	return ok && de.Retryable
}

// IsFatal reports whether err has fatal severity.
func IsFatal(err error) bool {
	de, ok := find(err)
	return ok && de.Severity == SeverityFatal
}

// GetCode returns the code of err, or "" when err carries none.
func GetCode(err error) string {
	if de, ok := find(err); ok {
		return de.Code
	}
	return ""
}

// GetCategory returns the category of err, or "" when err carries none.
func GetCategory(err error) Category {
	if de, ok := find(err); ok {
		return de.Category
	}
	return ""
}
