package domain

// ModerationVerdict is the tagged result of the moderation policy.
type ModerationVerdict struct {
	Violation bool
	Reason    string // set when Violation is true, e.g. "spam"
}

// Clean is the verdict for messages that need no moderation action.
var Clean = ModerationVerdict{}

// TriggerKind classifies why a response was deemed warranted.
type TriggerKind string

const (
	TriggerMention    TriggerKind = "mention"
	TriggerReplyChain TriggerKind = "reply_chain"
	TriggerQuestion   TriggerKind = "question"
	TriggerGreeting   TriggerKind = "greeting"
)

// ResponseVerdict is the tagged result of the response trigger policy.
type ResponseVerdict struct {
	Respond bool
	Trigger TriggerKind
}

// Silent is the verdict for messages that warrant no reply.
var Silent = ResponseVerdict{}

// OutcomeKind is the pipeline's final classification for one message.
type OutcomeKind string

const (
	OutcomeIgnored   OutcomeKind = "ignored"
	OutcomeModerated OutcomeKind = "moderated"
	OutcomeResponded OutcomeKind = "responded"
)

// Outcome is what Decide returns for one inbound message.
type Outcome struct {
	Kind    OutcomeKind
	Reason  string      // moderation reason, when Kind is OutcomeModerated
	Trigger TriggerKind // trigger kind, when Kind is OutcomeResponded
}

func Ignored() Outcome                { return Outcome{Kind: OutcomeIgnored} }
func Moderated(reason string) Outcome { return Outcome{Kind: OutcomeModerated, Reason: reason} }

func Responded(trigger TriggerKind) Outcome {
	return Outcome{Kind: OutcomeResponded, Trigger: trigger}
}
