// Package transport defines how notifications reach subscribers.
package transport

import (
	"context"
	"errors"
)

// ErrRecipientUnreachable marks a recoverable rejection: the recipient
// blocked the bot, left the chat, or the chat no longer exists.
var ErrRecipientUnreachable = errors.New("recipient unreachable")

// Sender delivers a text message to a subscriber. A nil error means the
// transport accepted the message. Errors wrapping ErrRecipientUnreachable
// are recoverable; any other error is unexpected.
type Sender interface {
	Send(ctx context.Context, subscriberID int64, text string) error
}

// IsUnreachable reports whether err is a recoverable recipient rejection.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrRecipientUnreachable)
}
