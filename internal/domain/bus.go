package domain

// MessageBus carries inbound messages from the transport to the engine.
type MessageBus interface {
	Publish(msg InboundMessage)
	Subscribe() <-chan InboundMessage
	Close()
}
