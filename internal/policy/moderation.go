// Package policy holds the pure per-message verdict functions. Policies never
// perform I/O; side effects belong to the engine.
package policy

import (
	"gatewarden/internal/domain"
	"gatewarden/internal/lexicon"
)

// ReasonSpam is the violation reason for spam lexicon hits.
const ReasonSpam = "spam"

// Moderation decides whether a message violates chat rules.
type Moderation struct {
	spam *lexicon.Set
}

func NewModeration(spam *lexicon.Set) *Moderation {
	return &Moderation{spam: spam}
}

// Evaluate returns the moderation verdict for one message. Out-of-scope chats
// and bot authors are never flagged; the bot check runs first so nothing
// downstream ever sees a bot-authored message as a violation.
func (p *Moderation) Evaluate(msg domain.InboundMessage, targetChat int64) domain.ModerationVerdict {
	if msg.ChatID != targetChat {
		return domain.Clean
	}
	if msg.Author.IsBot {
		return domain.Clean
	}
	if p.spam.Matches(msg.Text) {
		return domain.ModerationVerdict{Violation: true, Reason: ReasonSpam}
	}
	return domain.Clean
}
