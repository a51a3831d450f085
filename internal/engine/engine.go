// Package engine is the decision core: it turns each inbound message into
// exactly one of ignore / moderate / respond, performing the matching side
// effects through the Transport and Generator collaborators, and fires the
// daily digest.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gatewarden/internal/audit"
	"gatewarden/internal/domain"
	"gatewarden/internal/metrics"
	"gatewarden/internal/policy"
)

const (
	// generationTimeout bounds one Generator call. A cancelled or timed-out
	// generation counts as a failure; no partial reply is ever sent.
	generationTimeout = 60 * time.Second

	// chatQueueSize bounds the per-chat FIFO queue.
	chatQueueSize = 64
)

// Recorder persists decision outcomes and digest posts. Safe to leave nil;
// the engine then skips auditing.
type Recorder interface {
	RecordDecision(ctx context.Context, rec audit.DecisionRecord) error
	RecordDigest(ctx context.Context, firedDate string) error
}

// Engine orchestrates the moderation and response policies into one outcome
// per message. Collaborator failures never terminate message processing; they
// are logged, counted, and the action is skipped for that cycle.
type Engine struct {
	transport  domain.Transport
	generator  domain.Generator
	bus        domain.MessageBus
	moderation *policy.Moderation
	response   *policy.Response
	scheduler  *DigestScheduler
	recorder   Recorder
	logger     *slog.Logger

	targetChat int64

	// identity is written once before workers start and read-only after.
	identity domain.BotIdentity
}

// Config holds all dependencies of the engine.
type Config struct {
	Transport  domain.Transport
	Generator  domain.Generator
	Bus        domain.MessageBus
	Moderation *policy.Moderation
	Response   *policy.Response
	Scheduler  *DigestScheduler // optional: evaluated opportunistically per message
	Recorder   Recorder         // optional
	Logger     *slog.Logger
	TargetChat int64
	Identity   domain.BotIdentity // optional: resolved in Run when zero
}

func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		transport:  cfg.Transport,
		generator:  cfg.Generator,
		bus:        cfg.Bus,
		moderation: cfg.Moderation,
		response:   cfg.Response,
		scheduler:  cfg.Scheduler,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		targetChat: cfg.TargetChat,
		identity:   cfg.Identity,
	}
}

// Identity returns the bot identity in effect. Zero until resolved.
func (e *Engine) Identity() domain.BotIdentity { return e.identity }

// Run resolves the bot identity, then consumes inbound messages until ctx is
// cancelled or the bus closes. Messages for the same chat are processed in
// arrival order through a per-chat FIFO; different chats run concurrently.
func (e *Engine) Run(ctx context.Context) {
	if e.identity == (domain.BotIdentity{}) {
		ident, err := e.transport.ResolveIdentity(ctx)
		if err != nil {
			// Mention detection stays disabled; everything else still works.
			e.logger.Warn("identity handshake failed, mention detection disabled", "err", err)
		} else {
			e.identity = ident
		}
	}
	e.logger.Info("decision engine started",
		"target_chat", e.targetChat,
		"bot_id", e.identity.ID,
		"bot_username", e.identity.Username,
	)

	queues := make(map[int64]chan domain.InboundMessage)
	var wg sync.WaitGroup
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
		e.logger.Info("decision engine stopped")
	}()

	inbound := e.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			q, exists := queues[msg.ChatID]
			if !exists {
				q = make(chan domain.InboundMessage, chatQueueSize)
				queues[msg.ChatID] = q
				wg.Add(1)
				go e.chatWorker(ctx, q, &wg)
			}
			select {
			case q <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

// chatWorker drains one chat's queue serially, keeping same-chat side effects
// in arrival order.
func (e *Engine) chatWorker(ctx context.Context, q <-chan domain.InboundMessage, wg *sync.WaitGroup) {
	defer wg.Done()
	for msg := range q {
		e.Decide(ctx, msg)
		if e.scheduler != nil {
			e.scheduler.Evaluate(ctx, time.Now())
		}
	}
}

// Decide classifies one message and performs the resulting side effects.
// Moderation always precedes response generation; bot-authored and
// out-of-scope messages reach neither policy.
func (e *Engine) Decide(ctx context.Context, msg domain.InboundMessage) domain.Outcome {
	metrics.MessagesTotal.Inc()

	out := e.decide(ctx, msg)

	switch out.Kind {
	case domain.OutcomeModerated:
		metrics.ModeratedTotal.Inc()
	case domain.OutcomeResponded:
		metrics.RespondedTotal.Inc()
	default:
		metrics.IgnoredTotal.Inc()
	}

	e.record(ctx, msg, out)
	return out
}

func (e *Engine) decide(ctx context.Context, msg domain.InboundMessage) domain.Outcome {
	// Bot authors are dropped process-wide, before any scope check, to break
	// bot-to-bot loops.
	if msg.Author.IsBot {
		return domain.Ignored()
	}
	if msg.ChatID != e.targetChat {
		return domain.Ignored()
	}

	if v := e.moderation.Evaluate(msg, e.targetChat); v.Violation {
		e.moderate(ctx, msg, v.Reason)
		return domain.Moderated(v.Reason)
	}

	if v := e.response.Evaluate(msg, e.identity); v.Respond {
		e.respond(ctx, msg, v.Trigger)
		return domain.Responded(v.Trigger)
	}

	return domain.Ignored()
}

// moderate deletes the offending message, then warns the author. Deletion
// failure must not block the warning.
func (e *Engine) moderate(ctx context.Context, msg domain.InboundMessage, reason string) {
	if err := e.transport.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
		metrics.DeliveryFailures.Inc()
		switch {
		case errors.Is(err, domain.ErrNotFound):
			e.logger.Info("message already gone, skipping delete", "chat", msg.ChatID, "message", msg.MessageID)
		case errors.Is(err, domain.ErrForbidden):
			e.logger.Warn("no permission to delete message", "chat", msg.ChatID, "message", msg.MessageID)
		default:
			e.logger.Error("delete failed", "chat", msg.ChatID, "message", msg.MessageID, "err", err)
		}
	}

	warning := warningText(msg.Author.DisplayName, reason)
	if err := e.transport.SendMessage(ctx, msg.ChatID, warning); err != nil {
		metrics.DeliveryFailures.Inc()
		e.logger.Error("warning delivery failed", "chat", msg.ChatID, "author", msg.Author.ID, "err", err)
	}

	e.logger.Info("message moderated",
		"chat", msg.ChatID,
		"author", msg.Author.ID,
		"reason", reason,
	)
}

// respond generates a reply and sends it. Generator failure or empty output
// degrades silently: no reply, no error surfaced to the chat.
func (e *Engine) respond(ctx context.Context, msg domain.InboundMessage, trigger domain.TriggerKind) {
	gctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	start := time.Now()
	text, err := e.generator.GenerateReply(gctx, msg.Text, msg.Author.DisplayName)
	metrics.GenerationLatency.Observe(time.Since(start).Seconds())

	if err != nil || strings.TrimSpace(text) == "" {
		metrics.GenerationFailures.Inc()
		e.logger.Warn("reply generation failed, staying silent",
			"chat", msg.ChatID,
			"trigger", trigger,
			"err", err,
		)
		return
	}

	if err := e.transport.SendReply(ctx, msg.ChatID, text, msg.MessageID); err != nil {
		metrics.DeliveryFailures.Inc()
		e.logger.Error("reply delivery failed", "chat", msg.ChatID, "err", err)
		return
	}

	e.logger.Info("replied",
		"chat", msg.ChatID,
		"author", msg.Author.ID,
		"trigger", trigger,
		"reply_len", len(text),
	)
}

func (e *Engine) record(ctx context.Context, msg domain.InboundMessage, out domain.Outcome) {
	if e.recorder == nil {
		return
	}
	err := e.recorder.RecordDecision(ctx, audit.DecisionRecord{
		ChatID:   msg.ChatID,
		AuthorID: msg.Author.ID,
		Outcome:  string(out.Kind),
		Trigger:  string(out.Trigger),
		Reason:   out.Reason,
	})
	if err != nil {
		e.logger.Warn("audit write failed", "err", err)
	}
}

func warningText(displayName, reason string) string {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("⚠️ %s, your message was removed (%s). Please keep this chat free of links and promotions.", name, reason)
}
