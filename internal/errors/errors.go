package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthInvalidCredentials ErrorCode = "AUTH-001"
	ErrCodeAuthSessionInvalidated ErrorCode = "AUTH-002"
	ErrCodeAuthForbidden          ErrorCode = "AUTH-003"
	ErrCodeAuthNotAuthenticated   ErrorCode = "AUTH-004"
	ErrCodeAuthUnexpectedRole     ErrorCode = "AUTH-005"

	// Validation errors (VALID-001 to VALID-099)
	ErrCodeValidationRequired       ErrorCode = "VALID-001"
	ErrCodeValidationEmail          ErrorCode = "VALID-002"
	ErrCodeValidationContact        ErrorCode = "VALID-003"
	ErrCodeValidationPassword       ErrorCode = "VALID-004"
	ErrCodeValidationPasswordRepeat ErrorCode = "VALID-005"
	ErrCodeValidationFileSize       ErrorCode = "VALID-006"
	ErrCodeValidationFileType       ErrorCode = "VALID-007"

	// Network errors (NET-001 to NET-099)
	ErrCodeNetworkNoResponse ErrorCode = "NET-001"
	ErrCodeNetworkRequest    ErrorCode = "NET-002"

	// HTTP errors (HTTP-001 to HTTP-099)
	ErrCodeHTTPServer   ErrorCode = "HTTP-001"
	ErrCodeHTTPNotFound ErrorCode = "HTTP-002"
	ErrCodeHTTPConflict ErrorCode = "HTTP-003"
	ErrCodeHTTPDecode   ErrorCode = "HTTP-004"

	// Session storage errors (STORE-001 to STORE-099)
	ErrCodeStoreRead  ErrorCode = "STORE-001"
	ErrCodeStoreWrite ErrorCode = "STORE-002"
	ErrCodeStoreOpen  ErrorCode = "STORE-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
)

// Coded is implemented by every error that carries an ErrorCode.
type Coded interface {
	error
	ErrorCode() ErrorCode
}

// GemoraError represents an enhanced error with code, suggestions, and documentation
type GemoraError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *GemoraError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// ErrorCode returns the error code
func (e *GemoraError) ErrorCode() ErrorCode {
	return e.Code
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *GemoraError) Unwrap() error {
	return e.Cause
}

// New creates a new GemoraError
func New(code ErrorCode, message string) *GemoraError {
	return &GemoraError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new GemoraError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *GemoraError {
	return &GemoraError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *GemoraError) WithSuggestion(suggestion string) *GemoraError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *GemoraError) WithSuggestions(suggestions ...string) *GemoraError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *GemoraError) WithDocs(url string) *GemoraError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first coded error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ""
}

// Family returns the prefix of a code, e.g. "AUTH" for "AUTH-002".
func (c ErrorCode) Family() string {
	family, _, _ := strings.Cut(string(c), "-")
	return family
}

// Common error constructors for frequently used errors

// NewNotAuthenticatedError is returned when a command needs a session and none exists
func NewNotAuthenticatedError() *GemoraError {
	return New(ErrCodeAuthNotAuthenticated, "not logged in").
		WithSuggestion("Run 'gemora auth login --email <email>' to sign in").
		WithSuggestion("Run 'gemora auth status' to inspect the stored session")
}

// NewSessionInvalidatedError is returned after the backend rejected the stored token
func NewSessionInvalidatedError() *GemoraError {
	return New(ErrCodeAuthSessionInvalidated, "session is no longer valid, please log in again").
		WithSuggestion("Run 'gemora auth login --email <email>' to start a new session")
}

// NewForbiddenError is returned when the signed-in role may not use a command
func NewForbiddenError(route, role string) *GemoraError {
	return New(ErrCodeAuthForbidden, fmt.Sprintf("%s is not available for role %s", route, role)).
		WithSuggestion("Log in with an account that has the required role")
}

// NewStorageReadError creates a session storage read error
func NewStorageReadError(key string, cause error) *GemoraError {
	return Wrap(ErrCodeStoreRead, fmt.Sprintf("failed to read %q from session storage", key), cause).
		WithSuggestion("Check permissions on the session storage path: gemora config get storage.path")
}

// NewStorageWriteError creates a session storage write error
func NewStorageWriteError(key string, cause error) *GemoraError {
	return Wrap(ErrCodeStoreWrite, fmt.Sprintf("failed to write %q to session storage", key), cause).
		WithSuggestion("Check permissions on the session storage path: gemora config get storage.path")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *GemoraError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewConfigInvalidError creates an invalid configuration error
func NewConfigInvalidError(key string, cause error) *GemoraError {
	return Wrap(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration value for %s", key), cause).
		WithSuggestion("Inspect the configuration with 'gemora config view'")
}
