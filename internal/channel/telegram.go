// Package channel binds the engine to concrete chat platforms. The engine
// only ever sees domain types; translation from transport-library shapes
// happens here.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gatewarden/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
	telegramPollTimeout    = 30 // seconds
)

// Telegram implements domain.Transport over the Telegram Bot API with long
// polling. Slash commands are answered here and never reach the engine.
type Telegram struct {
	token     string
	parseMode string

	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

type TelegramConfig struct {
	Token     string
	ParseMode string
	Logger    *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.ParseMode == "" {
		cfg.ParseMode = "Markdown"
	}
	return &Telegram{
		token:     cfg.Token,
		parseMode: cfg.ParseMode,
		logger:    cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Connect authenticates against the Bot API. Must be called before Start or
// any Transport method.
func (t *Telegram) Connect() error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)
	return nil
}

// ResolveIdentity returns the bot's own identity from the GetMe handshake.
func (t *Telegram) ResolveIdentity(ctx context.Context) (domain.BotIdentity, error) {
	if t.bot == nil {
		return domain.BotIdentity{}, fmt.Errorf("telegram not connected")
	}
	return domain.BotIdentity{
		ID:       t.bot.Self.ID,
		Username: t.bot.Self.UserName,
	}, nil
}

// Start begins long polling and publishes translated messages on the bus
// until ctx is cancelled.
func (t *Telegram) Start(ctx context.Context, bus domain.MessageBus) error {
	if t.bot == nil {
		if err := t.Connect(); err != nil {
			return err
		}
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = telegramPollTimeout
	updates := t.bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			t.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update, bus)
		}
	}
}

func (t *Telegram) handleUpdate(update tgbotapi.Update, bus domain.MessageBus) {
	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return
	}

	if m.IsCommand() {
		t.handleCommand(m)
		return
	}

	msg := translateMessage(m)
	t.logger.Debug("telegram message received",
		"chat", msg.ChatID,
		"author", msg.Author.ID,
		"text_len", len(msg.Text),
	)
	bus.Publish(msg)
}

// translateMessage converts a Telegram message into the engine's value type.
func translateMessage(m *tgbotapi.Message) domain.InboundMessage {
	msg := domain.InboundMessage{
		MessageID: int64(m.MessageID),
		ChatID:    m.Chat.ID,
		Text:      m.Text,
		Author: domain.Author{
			ID:          m.From.ID,
			DisplayName: m.From.FirstName,
			IsBot:       m.From.IsBot,
		},
		Timestamp: time.Unix(int64(m.Date), 0),
	}
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		msg.ReplyToAuthor = m.ReplyToMessage.From.ID
	}
	return msg
}

// handleCommand answers slash commands directly. Command behavior is
// transport glue; the engine never sees commands.
func (t *Telegram) handleCommand(m *tgbotapi.Message) {
	chatID := m.Chat.ID
	switch m.Command() {
	case "start":
		t.send(chatID, "👋 Hello! I'm Gatewarden, this group's assistant.\n\nI answer questions and greetings, keep spam out, and post a daily digest.\n\nCommands:\n/rules — Chat rules\n/help — Show this message", 0)
	case "help":
		t.send(chatID, "📖 *Gatewarden Help*\n\nMention me, reply to me, or ask a question and I'll answer.\n\nCommands:\n/rules — Chat rules\n/help — This message", 0)
	case "rules":
		t.send(chatID, "📜 *Chat rules*\n\n• No links, promotions, or spam — offending messages are removed.\n• Be kind. The bot answers questions and greetings; mention it for anything else.", 0)
	default:
		// Unknown commands stay silent in a group chat.
	}
}

// SendReply sends text as a reply to the given message.
func (t *Telegram) SendReply(ctx context.Context, chatID int64, text string, replyTo int64) error {
	return t.send(chatID, text, int(replyTo))
}

// SendMessage sends a plain message to the chat.
func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	return t.send(chatID, text, 0)
}

// DeleteMessage removes a message, mapping Telegram API errors onto the
// domain's delivery failure kinds.
func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int64) error {
	del := tgbotapi.NewDeleteMessage(chatID, int(messageID))
	if _, err := t.bot.Request(del); err != nil {
		errStr := err.Error()
		switch {
		case strings.Contains(errStr, "message to delete not found"):
			return fmt.Errorf("delete message %d: %w", messageID, domain.ErrNotFound)
		case strings.Contains(errStr, "message can't be deleted"),
			strings.Contains(errStr, "not enough rights"):
			return fmt.Errorf("delete message %d: %w", messageID, domain.ErrForbidden)
		default:
			return fmt.Errorf("delete message %d: %w", messageID, err)
		}
	}
	return nil
}

// send splits long text into chunks under Telegram's message length limit.
func (t *Telegram) send(chatID int64, text string, replyTo int) error {
	const maxLen = telegramMaxMsgLen
	first := true
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxLen {
			cutAt := strings.LastIndex(chunk[:maxLen], "\n")
			if cutAt < maxLen/2 {
				cutAt = maxLen
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}

		// Only the first chunk carries the reply linkage.
		rt := 0
		if first {
			rt = replyTo
			first = false
		}
		if err := t.sendChunk(chatID, chunk, rt); err != nil {
			return err
		}
	}
	return nil
}

// sendChunk sends a single message chunk with retry and rate limit handling.
// Strategy: try the configured parse mode first, fall back to plain text on
// parse errors, back off on 429s.
func (t *Telegram) sendChunk(chatID int64, text string, replyTo int) error {
	var lastErr error

	for attempt := 0; attempt <= telegramMaxSendRetries; attempt++ {
		msg := tgbotapi.NewMessage(chatID, text)
		if replyTo != 0 {
			msg.ReplyToMessageID = replyTo
		}
		if attempt == 0 && t.parseMode != "" {
			msg.ParseMode = t.parseMode
		}
		// Subsequent attempts send plain text; the parse mode may be the
		// thing that's failing.

		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		errStr := err.Error()

		if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "429") {
			retryAfter := time.Duration(attempt+1) * 3 * time.Second
			t.logger.Warn("telegram rate limited, backing off",
				"retry_after", retryAfter, "attempt", attempt+1,
			)
			time.Sleep(retryAfter)
			continue
		}

		if attempt == 0 && msg.ParseMode != "" && strings.Contains(errStr, "can't parse entities") {
			t.logger.Warn("telegram parse error, retrying as plain text",
				"err", err, "parseMode", t.parseMode,
			)
			continue
		}

		if attempt < telegramMaxSendRetries {
			backoff := time.Duration(attempt+1) * time.Second
			t.logger.Warn("telegram send error, retrying", "err", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}
	}

	t.logger.Error("telegram send failed after retries", "err", lastErr, "attempts", telegramMaxSendRetries+1)
	return fmt.Errorf("telegram send: %w", lastErr)
}
