package policy

import (
	"strings"

	"gatewarden/internal/domain"
	"gatewarden/internal/lexicon"
)

// defaultMinResponseLen is the trimmed length below which a message is never
// answered.
const defaultMinResponseLen = 2

// Response decides whether a clean, in-scope message warrants a reply, and
// why. The checks run in a fixed order so the strongest addressing signal
// wins: an explicit @mention or a direct reply beats incidental lexical
// overlap with the question or greeting sets.
type Response struct {
	question  *lexicon.Set
	greeting  *lexicon.Set
	minLength int
}

func NewResponse(question, greeting *lexicon.Set) *Response {
	return &Response{
		question:  question,
		greeting:  greeting,
		minLength: defaultMinResponseLen,
	}
}

// Evaluate returns the response verdict for one message. Only called for
// messages the moderation policy judged clean and in scope.
func (p *Response) Evaluate(msg domain.InboundMessage, identity domain.BotIdentity) domain.ResponseVerdict {
	text := strings.TrimSpace(msg.Text)
	if len([]rune(text)) < p.minLength {
		return domain.Silent
	}

	// Mention detection stays false until the identity handshake has
	// populated the username.
	if identity.Username != "" {
		mention := "@" + strings.ToLower(identity.Username)
		if strings.Contains(strings.ToLower(text), mention) {
			return domain.ResponseVerdict{Respond: true, Trigger: domain.TriggerMention}
		}
	}

	if msg.ReplyToAuthor != 0 && msg.ReplyToAuthor == identity.ID {
		return domain.ResponseVerdict{Respond: true, Trigger: domain.TriggerReplyChain}
	}

	if p.question.Matches(text) {
		return domain.ResponseVerdict{Respond: true, Trigger: domain.TriggerQuestion}
	}
	if p.greeting.Matches(text) {
		return domain.ResponseVerdict{Respond: true, Trigger: domain.TriggerGreeting}
	}

	return domain.Silent
}
