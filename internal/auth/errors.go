package auth

import (
	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/gateway"
)

// Messages shown when the backend gives nothing better.
const (
	MsgNoResponse         = "No response from server. Please check your connection."
	MsgRequestFailed      = "An error occurred. Please try again."
	MsgLoginFailed        = "Invalid email or password"
	MsgRegisterFailed     = "Registration failed"
	MsgUnexpectedResponse = "Unexpected response from server"
)

// ValidationError is a client-side input error. No request was sent.
type ValidationError struct {
	Field   string
	Message string
	Code    errors.ErrorCode
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrorCode implements errors.Coded.
func (e *ValidationError) ErrorCode() errors.ErrorCode {
	return e.Code
}

func invalid(field string, code errors.ErrorCode, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Code: code}
}

// Error is a failed login or registration. Message is fit to show the user.
type Error struct {
	Kind    gateway.Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorCode implements errors.Coded.
func (e *Error) ErrorCode() errors.ErrorCode {
	if code := errors.CodeOf(e.Cause); code != "" {
		return code
	}
	switch e.Kind {
	case gateway.KindNetwork:
		return errors.ErrCodeNetworkNoResponse
	case gateway.KindRequest:
		return errors.ErrCodeNetworkRequest
	default:
		return errors.ErrCodeAuthInvalidCredentials
	}
}

// failure converts a gateway error into an Error, using fallback when the
// backend sent no message.
func failure(err error, fallback string) *Error {
	gerr, ok := gateway.AsError(err)
	if !ok {
		return &Error{Kind: gateway.KindServer, Message: fallback, Cause: err}
	}
	switch gerr.Kind {
	case gateway.KindNetwork:
		return &Error{Kind: gerr.Kind, Message: MsgNoResponse, Cause: err}
	case gateway.KindRequest:
		return &Error{Kind: gerr.Kind, Message: MsgRequestFailed, Cause: err}
	default:
		return &Error{Kind: gerr.Kind, Message: gerr.MessageOr(fallback), Cause: err}
	}
}
