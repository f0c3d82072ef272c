package ux

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/gemora/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError analyzes an error and adds contextual suggestions. Errors
// that already carry suggestions are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *errors.GemoraError
	if stderrors.As(err, &gerr) && len(gerr.Suggestions) > 0 {
		return err
	}
	var withSuggestion *ErrorWithSuggestion
	if stderrors.As(err, &withSuggestion) {
		return err
	}

	switch errors.CodeOf(err) {
	case errors.ErrCodeAuthSessionInvalidated:
		return NewErrorWithSuggestion(err,
			"Your session ended. Run 'gemora auth login --email <email>' to sign in again")
	case errors.ErrCodeAuthForbidden:
		return NewErrorWithSuggestion(err,
			"This command needs a different role. Check 'gemora auth status'")
	case errors.ErrCodeNetworkNoResponse:
		return NewErrorWithSuggestion(err,
			"Check that the backend is running and that api.base_url is correct: gemora config get api.base_url")
	}

	errMsg := err.Error()

	// File not found errors
	if strings.Contains(errMsg, "no such file or directory") {
		return NewErrorWithSuggestion(err,
			"Check that the file path is correct and readable")
	}

	// Permission errors
	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions on the Gemora home directory: gemora config path")
	}

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Start a local backend with 'gemora serve --seed' or point --api-url at a running one")
	}

	// Storage errors
	if strings.Contains(errMsg, "passphrase") || strings.Contains(errMsg, "failed to decrypt") {
		return NewErrorWithSuggestion(err,
			"Set GEMORA_PASSPHRASE to the passphrase used when the session was stored")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
