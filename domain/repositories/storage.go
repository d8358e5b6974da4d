package repositories

import (
	"context"

	"github.com/satriahrh/nova/domain/entities"
)

// ContextStore owns the persisted conversation state. It is the only
// component allowed to write the context file.
type ContextStore interface {
	// Load returns the last persisted state, or an empty context when none
	// exists yet.
	Load() (*entities.ConversationContext, error)
	// AppendTurn records a turn and flushes. Persistence failures are
	// surfaced but the in-memory history stays authoritative.
	AppendTurn(turn entities.Turn) error
	// SummarizeAndPersist asks the summarizer to condense the history and
	// persists the result, superseding the full turn history. When the
	// summarizer fails or returns nothing, a local fallback digest is used;
	// if even that is empty the history is trimmed instead of replaced.
	SummarizeAndPersist(ctx context.Context, summarizer Summarizer) (entities.Summary, error)
	// Turns returns the current in-memory history.
	Turns() []entities.Turn
	// Flush persists the current state.
	Flush() error
}
