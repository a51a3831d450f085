package provider

import "fmt"

const systemPrompt = "You are a friendly and helpful assistant in a group chat. " +
	"Respond conversationally and keep replies short and engaging. " +
	"Never include links or promotional content."

const digestPrompt = "Write a short, upbeat daily digest message for a group chat: " +
	"greet the group, share one interesting thought or fact for the day, and wish " +
	"everyone a good day. Keep it under 120 words. Plain text only."

// replyPrompt frames one user message for the model, carrying the author's
// display name as context.
func replyPrompt(userText, authorName string) string {
	return fmt.Sprintf("User: %s\nMessage: %s\n\nRespond in a friendly, conversational way. Keep it short and engaging.",
		authorName, userText)
}

// chatMessage is the provider-neutral request message shape shared by the
// OpenAI and Ollama clients.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func replyMessages(userText, authorName string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: replyPrompt(userText, authorName)},
	}
}

func digestMessages() []chatMessage {
	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: digestPrompt},
	}
}
