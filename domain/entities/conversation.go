package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxPersistedTurns caps the conversation history kept on disk and in memory.
// Older turns fall off; long-term memory is carried by the Summary instead.
const MaxPersistedTurns = 40

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is a single utterance recorded in the conversation.
type Turn struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn builds a turn with a fresh ID and the current time.
func NewTurn(speaker Speaker, text string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      strings.TrimSpace(text),
		Timestamp: time.Now(),
	}
}

// Summary is the condensed replacement for the full turn history. At most one
// summary is live at a time; a new one supersedes the previous.
type Summary struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// IsZero reports whether no summary has been generated.
func (s Summary) IsZero() bool {
	return s.Text == ""
}

// PersistedState is the on-disk representation of the conversation. Exactly
// one of Turns or Summary is meaningful after a summarization event, but both
// may coexist while new turns accumulate on top of an old summary.
type PersistedState struct {
	Turns     []Turn    `json:"turns,omitempty"`
	Summary   *Summary  `json:"summary,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationContext is the ordered, append-only chat history fed back to
// the AI service. It is never mutated concurrently; the listen controller's
// run loop is its only writer.
type ConversationContext struct {
	turns   []Turn
	summary Summary
}

// NewConversationContext builds a context from persisted state, dropping
// malformed entries and trimming to the persisted-turn cap.
func NewConversationContext(state *PersistedState) *ConversationContext {
	c := &ConversationContext{}
	if state == nil {
		return c
	}
	c.turns = SanitizeTurns(state.Turns)
	if state.Summary != nil {
		c.summary = *state.Summary
	}
	return c
}

// Append records a turn at the end of the history.
func (c *ConversationContext) Append(turn Turn) {
	if turn.Text == "" {
		return
	}
	c.turns = append(c.turns, turn)
	if len(c.turns) > MaxPersistedTurns {
		c.turns = c.turns[len(c.turns)-MaxPersistedTurns:]
	}
}

// Turns returns a copy of the ordered history.
func (c *ConversationContext) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of recorded turns.
func (c *ConversationContext) Len() int {
	return len(c.turns)
}

// Summary returns the live summary, zero if none was generated yet.
func (c *ConversationContext) Summary() Summary {
	return c.summary
}

// Supersede replaces the full turn history with a summary. The summary
// becomes the sole carrier of conversational memory.
func (c *ConversationContext) Supersede(summary Summary) {
	c.summary = summary
	c.turns = nil
}

// TrimTail keeps only the most recent n turns. Used when summarization fails
// and the history still has to shrink on pause.
func (c *ConversationContext) TrimTail(n int) {
	if len(c.turns) > n {
		c.turns = c.turns[len(c.turns)-n:]
	}
}

// State snapshots the context for persistence.
func (c *ConversationContext) State() *PersistedState {
	state := &PersistedState{
		Turns:     c.Turns(),
		UpdatedAt: time.Now(),
	}
	if !c.summary.IsZero() {
		s := c.summary
		state.Summary = &s
	}
	return state
}

// SanitizeTurns drops entries with unknown speakers or blank text and trims
// the result to the persisted-turn cap. Persisted files are user-editable,
// so loading is defensive about their contents.
func SanitizeTurns(turns []Turn) []Turn {
	cleaned := make([]Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Speaker != SpeakerUser && turn.Speaker != SpeakerAssistant {
			continue
		}
		turn.Text = strings.TrimSpace(turn.Text)
		if turn.Text == "" {
			continue
		}
		cleaned = append(cleaned, turn)
	}
	if len(cleaned) > MaxPersistedTurns {
		cleaned = cleaned[len(cleaned)-MaxPersistedTurns:]
	}
	return cleaned
}

const (
	fallbackSummaryTurns  = 6
	fallbackSnippetRunes  = 140
	fallbackSnippetEllide = "…"
)

// FallbackSummary builds a local digest of the most recent turns for the case
// where the AI service cannot produce one. Returns "" when there is nothing
// worth keeping.
func FallbackSummary(turns []Turn) string {
	if len(turns) > fallbackSummaryTurns {
		turns = turns[len(turns)-fallbackSummaryTurns:]
	}
	var lines []string
	for _, turn := range SanitizeTurns(turns) {
		prefix := "You"
		if turn.Speaker == SpeakerAssistant {
			prefix = "Nova"
		}
		snippet := turn.Text
		if runes := []rune(snippet); len(runes) > fallbackSnippetRunes {
			snippet = strings.TrimSpace(string(runes[:fallbackSnippetRunes-3])) + fallbackSnippetEllide
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", prefix, snippet))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Recent highlights:\n" + strings.Join(lines, "\n")
}
