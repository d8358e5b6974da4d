package repositories

import (
	"context"

	"github.com/satriahrh/nova/domain/entities"
)

// ReplyFragment is one sentence-sized piece of a streamed reply. Err is set
// on the final fragment when the stream dies mid-way.
type ReplyFragment struct {
	Text string
	Err  error
}

// ReplyGenerator produces in-character replies from the full conversation
// context, streamed so synthesis can start before the reply completes.
type ReplyGenerator interface {
	// StreamReply generates a reply to userText given the ordered history and
	// an optional on-screen text snapshot (empty when screen capture is off).
	StreamReply(ctx context.Context, history []entities.Turn, screenText, userText string) (<-chan ReplyFragment, error)
}

// Summarizer condenses a conversation history into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, history []entities.Turn) (string, error)
}
