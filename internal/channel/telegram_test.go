package channel

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestTranslateMessage(t *testing.T) {
	m := &tgbotapi.Message{
		MessageID: 321,
		Date:      1767225600,
		Text:      "hi bot",
		Chat:      &tgbotapi.Chat{ID: -100987},
		From: &tgbotapi.User{
			ID:        555,
			FirstName: "Dana",
			IsBot:     false,
		},
	}

	got := translateMessage(m)
	if got.MessageID != 321 {
		t.Errorf("MessageID = %d, want 321", got.MessageID)
	}
	if got.ChatID != -100987 {
		t.Errorf("ChatID = %d, want -100987", got.ChatID)
	}
	if got.Text != "hi bot" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Author.ID != 555 || got.Author.DisplayName != "Dana" || got.Author.IsBot {
		t.Errorf("Author = %+v", got.Author)
	}
	if got.ReplyToAuthor != 0 {
		t.Errorf("ReplyToAuthor = %d, want 0", got.ReplyToAuthor)
	}
	if got.Timestamp.Unix() != 1767225600 {
		t.Errorf("Timestamp = %v", got.Timestamp)
	}
}

func TestTranslateMessageReplyChain(t *testing.T) {
	m := &tgbotapi.Message{
		MessageID: 322,
		Chat:      &tgbotapi.Chat{ID: -100987},
		From:      &tgbotapi.User{ID: 555},
		ReplyToMessage: &tgbotapi.Message{
			MessageID: 300,
			From:      &tgbotapi.User{ID: 99, IsBot: true},
		},
	}

	got := translateMessage(m)
	if got.ReplyToAuthor != 99 {
		t.Errorf("ReplyToAuthor = %d, want 99", got.ReplyToAuthor)
	}
}

func TestTranslateMessageBotAuthor(t *testing.T) {
	m := &tgbotapi.Message{
		MessageID: 323,
		Chat:      &tgbotapi.Chat{ID: -100987},
		From:      &tgbotapi.User{ID: 42, FirstName: "OtherBot", IsBot: true},
	}
	if got := translateMessage(m); !got.Author.IsBot {
		t.Error("IsBot flag lost in translation")
	}
}
