package domain

import "context"

// Generator produces conversational text. Implementations must return within
// a bounded timeout; the engine treats any error as a transient generation
// failure and degrades silently.
type Generator interface {
	Name() string
	// GenerateReply produces a reply to one user message.
	GenerateReply(ctx context.Context, userText, authorName string) (string, error)
	// GenerateDigest produces the once-per-day digest post.
	GenerateDigest(ctx context.Context) (string, error)
	// Healthy reports whether the backing service is reachable.
	Healthy(ctx context.Context) error
}
