package errors

import (
	stderrors "errors"
	"fmt"
)

// CatalogError is the structured error type for the catalogue.
// It carries enough context for logging, HTTP mapping and CLI presentation.
type CatalogError struct {
	// Code is the unique error code (e.g., "ERR_404_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Source, Request, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface. The cause is appended when it adds
// information beyond the message.
func (e *CatalogError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a CatalogError with the same code.
func (e *CatalogError) Is(target error) bool {
	if t, ok := target.(*CatalogError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *CatalogError) WithDetail(key, value string) *CatalogError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *CatalogError) WithSuggestion(suggestion string) *CatalogError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CatalogError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *CatalogError {
	return &CatalogError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a CatalogError from an existing error.
func Wrap(code string, err error) *CatalogError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *CatalogError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// SourceUnavailable reports that the content source could not be enumerated.
func SourceUnavailable(source string, cause error) *CatalogError {
	return New(ErrCodeSourceUnavailable, "content source unavailable: "+source, cause).
		WithDetail("source", source)
}

// MalformedRecord reports an item whose metadata header failed validation.
func MalformedRecord(item, reason string) *CatalogError {
	return New(ErrCodeMalformedRecord, fmt.Sprintf("malformed record %s: %s", item, reason), nil).
		WithDetail("item", item)
}

// ItemReadError reports an item that could not be read.
func ItemReadError(item string, cause error) *CatalogError {
	return New(ErrCodeItemRead, "read item "+item, cause).WithDetail("item", item)
}

// NotFound reports a single-item fetch for an id absent from the index.
func NotFound(id string) *CatalogError {
	return New(ErrCodeNotFound, "content not found: "+id, nil).WithDetail("id", id)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *CatalogError {
	return New(ErrCodeInternal, message, cause)
}

// IsNotFound reports whether err is (or wraps) a NotFound error.
func IsNotFound(err error) bool {
	return GetCode(err) == ErrCodeNotFound
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first CatalogError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// GetCategory extracts the category from the first CatalogError in the chain.
func GetCategory(err error) Category {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Category
	}
	return ""
}
