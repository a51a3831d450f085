package domain

import "time"

// Author identifies the sender of an inbound message.
type Author struct {
	ID          int64
	DisplayName string
	IsBot       bool
}

// InboundMessage is the engine's unit of work: one message translated from
// whatever the transport library delivered. It is owned by a single decision
// cycle and never outlives it.
type InboundMessage struct {
	MessageID     int64
	ChatID        int64
	Text          string
	Author        Author
	ReplyToAuthor int64 // author ID of the message being replied to, 0 if none
	Timestamp     time.Time
}
