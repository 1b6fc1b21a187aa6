// Package identity abstracts the external identity provider. The
// console never sees credentials; it consumes the token minted by the
// provider's own email/password or federated popup flow and turns it
// into a verified Identity.
package identity

import (
	"context"
	"errors"
	"strings"
)

// errPrefix is the fixed prefix providers attach to their error
// messages. It is stripped before the message reaches a user.
const errPrefix = "identity: "

// Identity is the verified principal emitted by a sign-in event.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Provider verifies a raw provider token and returns the identity it
// asserts.
type Provider interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// Error is a provider failure whose message is safe to show on the
// login form once the fixed prefix is stripped.
type Error struct {
	msg string
}

func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func (e *Error) Error() string {
	return errPrefix + e.msg
}

// UserMessage returns the message with the provider prefix removed.
func (e *Error) UserMessage() string {
	return e.msg
}

// UserMessage extracts a display message from any sign-in error,
// stripping the provider prefix when present.
func UserMessage(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.UserMessage()
	}
	return strings.TrimPrefix(err.Error(), errPrefix)
}
