package domain

import (
	"context"
	"errors"
)

// Transport delivery failures the engine distinguishes. Everything else is
// wrapped and treated as a generic delivery failure.
var (
	ErrNotFound  = errors.New("message not found")
	ErrForbidden = errors.New("insufficient permissions")
)

// Transport is the outbound side of the chat binding. Inbound messages arrive
// through the MessageBus; identity is resolved once before the engine starts.
type Transport interface {
	// SendReply sends text as a reply to the given message.
	SendReply(ctx context.Context, chatID int64, text string, replyTo int64) error
	// SendMessage sends a plain message to the chat.
	SendMessage(ctx context.Context, chatID int64, text string) error
	// DeleteMessage removes a message. Fails with ErrNotFound when the message
	// is already gone and ErrForbidden when the bot lacks the privilege.
	DeleteMessage(ctx context.Context, chatID int64, messageID int64) error
	// ResolveIdentity performs the one-time GetMe handshake.
	ResolveIdentity(ctx context.Context) (BotIdentity, error)
}
