package portal

import (
	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/gateway"
)

// Fallback messages used when the backend does not explain a failure.
const (
	MsgFetchUsers       = "Failed to fetch users"
	MsgFetchUser        = "Failed to fetch user details"
	MsgUpdateUser       = "Failed to update user"
	MsgDeleteUser       = "Failed to delete user"
	MsgSearchUsers      = "Failed to search users"
	MsgFetchPending     = "Failed to fetch pending gems"
	MsgApproveGem       = "Failed to approve gem"
	MsgRejectGem        = "Failed to reject gem"
	MsgFetchApproved    = "Failed to fetch approved gems"
	MsgDeleteGem        = "Failed to delete gem"
	MsgFetchTickets     = "Failed to fetch tickets"
	MsgSendReply        = "Failed to send reply"
	MsgFetchProfile     = "Failed to fetch profile"
	MsgUpdateProfile    = "Failed to update profile"
	MsgUploadAvatar     = "Failed to upload avatar"
	MsgChangePassword   = "Failed to change password"
	MsgInvalidTicketArg = "Invalid ticket status"
)

// Error is a failed portal operation. Message is the backend's explanation
// or the operation's fallback text.
type Error struct {
	Op      string
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
	return errors.ErrCodeHTTPServer
}

func failure(op string, err error, fallback string) *Error {
	msg := fallback
	if gerr, ok := gateway.AsError(err); ok && gerr.Kind == gateway.KindServer {
		msg = gerr.MessageOr(fallback)
	}
	return &Error{Op: op, Message: msg, Cause: err}
}
