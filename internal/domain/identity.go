package domain

// BotIdentity is the bot's own identity, resolved once at startup through the
// transport handshake and read-only thereafter. Username may be empty when the
// platform has not assigned one; mention detection must then stay false.
type BotIdentity struct {
	ID       int64
	Username string
}
