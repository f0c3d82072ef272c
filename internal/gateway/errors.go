package gateway

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/gemora/internal/errors"
)

// Kind classifies why a call was rejected.
type Kind string

const (
	// KindServer means the backend answered with a non-2xx status.
	KindServer Kind = "server"
	// KindNetwork means no response arrived: transport failure, timeout or
	// cancellation.
	KindNetwork Kind = "network"
	// KindRequest means the request could not be built.
	KindRequest Kind = "request"
)

// Error is returned by every Client helper on failure.
type Error struct {
	Kind       Kind
	StatusCode int
	// Message is the backend-supplied message, if any.
	Message string
	Method  string
	Path    string
	Body    []byte
	Cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		if e.Message != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	case KindNetwork:
		return fmt.Sprintf("%s %s: no response: %v", e.Method, e.Path, e.Cause)
	default:
		return fmt.Sprintf("%s %s: failed to build request: %v", e.Method, e.Path, e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorCode maps the failure onto the shared error code families.
func (e *Error) ErrorCode() errors.ErrorCode {
	switch e.Kind {
	case KindNetwork:
		return errors.ErrCodeNetworkNoResponse
	case KindRequest:
		return errors.ErrCodeNetworkRequest
	}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return errors.ErrCodeAuthSessionInvalidated
	case http.StatusForbidden:
		return errors.ErrCodeAuthForbidden
	case http.StatusNotFound:
		return errors.ErrCodeHTTPNotFound
	case http.StatusConflict:
		return errors.ErrCodeHTTPConflict
	default:
		return errors.ErrCodeHTTPServer
	}
}

// MessageOr returns the backend message, or fallback when there is none.
func (e *Error) MessageOr(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// IsStatus reports whether err is a server rejection with the given status.
func IsStatus(err error, status int) bool {
	gerr, ok := AsError(err)
	return ok && gerr.Kind == KindServer && gerr.StatusCode == status
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var gerr *Error
	if stderrors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// backendMessage pulls a human readable message out of an error response.
// Plain-text bodies are used as-is when short.
func backendMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		return eb.Error
	}
	if trimmed[0] == '{' || trimmed[0] == '[' || trimmed[0] == '<' || len(trimmed) > 200 {
		return ""
	}
	return trimmed
}
