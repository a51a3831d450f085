package policy

import (
	"testing"

	"gatewarden/internal/domain"
	"gatewarden/internal/lexicon"
)

var botIdentity = domain.BotIdentity{ID: 4242, Username: "gatewarden_bot"}

func newResponse(t *testing.T) *Response {
	t.Helper()
	lex := lexicon.Defaults()
	return NewResponse(lex.Question, lex.Greeting)
}

func TestResponseTriggers(t *testing.T) {
	p := newResponse(t)

	cases := []struct {
		name    string
		msg     domain.InboundMessage
		respond bool
		trigger domain.TriggerKind
	}{
		{
			name:    "mention",
			msg:     domain.InboundMessage{Text: "@gatewarden_bot ping"},
			respond: true,
			trigger: domain.TriggerMention,
		},
		{
			name:    "mention case insensitive",
			msg:     domain.InboundMessage{Text: "hey @GateWarden_Bot"},
			respond: true,
			trigger: domain.TriggerMention,
		},
		{
			name:    "reply chain",
			msg:     domain.InboundMessage{Text: "thanks for that", ReplyToAuthor: botIdentity.ID},
			respond: true,
			trigger: domain.TriggerReplyChain,
		},
		{
			name:    "question",
			msg:     domain.InboundMessage{Text: "does anyone know when the meetup starts"},
			respond: true,
			trigger: domain.TriggerQuestion,
		},
		{
			name:    "greeting",
			msg:     domain.InboundMessage{Text: "hi bot"},
			respond: true,
			trigger: domain.TriggerGreeting,
		},
		{
			name:    "plain chatter",
			msg:     domain.InboundMessage{Text: "nice weather today"},
			respond: false,
		},
		{
			name:    "too short",
			msg:     domain.InboundMessage{Text: "?"},
			respond: false,
		},
		{
			name:    "whitespace only",
			msg:     domain.InboundMessage{Text: "   \n "},
			respond: false,
		},
		{
			name:    "reply to someone else",
			msg:     domain.InboundMessage{Text: "agreed, makes sense", ReplyToAuthor: 777},
			respond: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := p.Evaluate(tc.msg, botIdentity)
			if v.Respond != tc.respond {
				t.Fatalf("Respond = %v, want %v", v.Respond, tc.respond)
			}
			if tc.respond && v.Trigger != tc.trigger {
				t.Errorf("Trigger = %q, want %q", v.Trigger, tc.trigger)
			}
		})
	}
}

// Mention outranks the lexicon triggers even when their patterns also match.
func TestResponseTriggerPriority(t *testing.T) {
	p := newResponse(t)

	v := p.Evaluate(domain.InboundMessage{Text: "@gatewarden_bot what is this?"}, botIdentity)
	if !v.Respond || v.Trigger != domain.TriggerMention {
		t.Errorf("mention should win over question, got %+v", v)
	}

	v = p.Evaluate(domain.InboundMessage{Text: "what do you think", ReplyToAuthor: botIdentity.ID}, botIdentity)
	if !v.Respond || v.Trigger != domain.TriggerReplyChain {
		t.Errorf("reply chain should win over question, got %+v", v)
	}

	v = p.Evaluate(domain.InboundMessage{Text: "hi bot, how are you?"}, botIdentity)
	if !v.Respond || v.Trigger != domain.TriggerQuestion {
		t.Errorf("question should win over greeting, got %+v", v)
	}
}

func TestResponseUnresolvedIdentity(t *testing.T) {
	p := newResponse(t)
	unresolved := domain.BotIdentity{}

	// No username means mention detection is off entirely.
	v := p.Evaluate(domain.InboundMessage{Text: "@gatewarden_bot hello there"}, unresolved)
	if v.Respond {
		t.Errorf("mention must not trigger without a resolved username, got %+v", v)
	}

	// Zero identity ID must not match a zero ReplyToAuthor.
	v = p.Evaluate(domain.InboundMessage{Text: "just chatting along"}, unresolved)
	if v.Respond {
		t.Errorf("zero ReplyToAuthor must not look like a reply to the bot, got %+v", v)
	}
}
