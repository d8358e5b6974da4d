package entities

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNewTurnTrimsText(t *testing.T) {
	turn := NewTurn(SpeakerUser, "  Hello  ")
	if turn.Text != "Hello" {
		t.Errorf("Expected trimmed text, got %q", turn.Text)
	}
	if turn.ID == "" {
		t.Error("Expected a generated ID")
	}
	if turn.Speaker != SpeakerUser {
		t.Errorf("Expected user speaker, got %s", turn.Speaker)
	}
}

func TestAppendCapsHistory(t *testing.T) {
	c := NewConversationContext(nil)
	for i := 0; i < MaxPersistedTurns+10; i++ {
		c.Append(NewTurn(SpeakerUser, fmt.Sprintf("turn %d", i)))
	}

	if c.Len() != MaxPersistedTurns {
		t.Fatalf("Expected %d turns, got %d", MaxPersistedTurns, c.Len())
	}

	turns := c.Turns()
	if turns[0].Text != "turn 10" {
		t.Errorf("Expected oldest surviving turn to be 'turn 10', got %q", turns[0].Text)
	}
	if turns[len(turns)-1].Text != fmt.Sprintf("turn %d", MaxPersistedTurns+9) {
		t.Errorf("Unexpected newest turn %q", turns[len(turns)-1].Text)
	}
}

func TestAppendIgnoresBlankTurns(t *testing.T) {
	c := NewConversationContext(nil)
	c.Append(Turn{Speaker: SpeakerUser})
	if c.Len() != 0 {
		t.Errorf("Expected blank turn to be dropped, got %d turns", c.Len())
	}
}

func TestSupersedeReplacesHistory(t *testing.T) {
	c := NewConversationContext(nil)
	c.Append(NewTurn(SpeakerUser, "Hello"))
	c.Append(NewTurn(SpeakerAssistant, "Hi there!"))

	summary := Summary{Text: "- greeted each other", GeneratedAt: time.Now()}
	c.Supersede(summary)

	if c.Len() != 0 {
		t.Errorf("Expected no turns after supersede, got %d", c.Len())
	}
	if c.Summary().Text != summary.Text {
		t.Errorf("Expected summary %q, got %q", summary.Text, c.Summary().Text)
	}

	state := c.State()
	if len(state.Turns) != 0 {
		t.Errorf("Expected no persisted turns, got %d", len(state.Turns))
	}
	if state.Summary == nil || state.Summary.Text != summary.Text {
		t.Error("Expected persisted summary")
	}
}

func TestTrimTail(t *testing.T) {
	c := NewConversationContext(nil)
	for i := 0; i < 10; i++ {
		c.Append(NewTurn(SpeakerUser, fmt.Sprintf("turn %d", i)))
	}

	c.TrimTail(4)
	if c.Len() != 4 {
		t.Fatalf("Expected 4 turns, got %d", c.Len())
	}
	if c.Turns()[0].Text != "turn 6" {
		t.Errorf("Expected trim to keep the tail, got %q", c.Turns()[0].Text)
	}
}

func TestSanitizeTurns(t *testing.T) {
	turns := []Turn{
		{Speaker: SpeakerUser, Text: "keep me"},
		{Speaker: "narrator", Text: "unknown speaker"},
		{Speaker: SpeakerAssistant, Text: "   "},
		{Speaker: SpeakerAssistant, Text: "  also keep  "},
	}

	cleaned := SanitizeTurns(turns)
	if len(cleaned) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(cleaned))
	}
	if cleaned[0].Text != "keep me" || cleaned[1].Text != "also keep" {
		t.Errorf("Unexpected sanitized turns: %+v", cleaned)
	}
}

func TestFallbackSummary(t *testing.T) {
	var turns []Turn
	for i := 0; i < 10; i++ {
		turns = append(turns, NewTurn(SpeakerUser, fmt.Sprintf("message %d", i)))
	}
	turns = append(turns, NewTurn(SpeakerAssistant, strings.Repeat("long reply ", 30)))

	digest := FallbackSummary(turns)
	if !strings.HasPrefix(digest, "Recent highlights:\n") {
		t.Fatalf("Unexpected digest prefix: %q", digest)
	}

	lines := strings.Split(digest, "\n")[1:]
	if len(lines) != 6 {
		t.Fatalf("Expected 6 digest lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "- You: ") {
		t.Errorf("Expected user prefix, got %q", lines[0])
	}
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "- Nova: ") {
		t.Errorf("Expected assistant prefix, got %q", last)
	}
	if !strings.HasSuffix(last, "…") {
		t.Errorf("Expected long snippet to be elided, got %q", last)
	}
}

func TestFallbackSummaryEmpty(t *testing.T) {
	if got := FallbackSummary(nil); got != "" {
		t.Errorf("Expected empty digest, got %q", got)
	}
	if got := FallbackSummary([]Turn{{Speaker: "narrator", Text: "x"}}); got != "" {
		t.Errorf("Expected empty digest for unusable turns, got %q", got)
	}
}

func TestNewConversationContextSanitizesState(t *testing.T) {
	state := &PersistedState{
		Turns: []Turn{
			{Speaker: SpeakerUser, Text: "hello"},
			{Speaker: "narrator", Text: "dropped"},
		},
		Summary: &Summary{Text: "- old summary"},
	}

	c := NewConversationContext(state)
	if c.Len() != 1 {
		t.Errorf("Expected 1 turn after sanitize, got %d", c.Len())
	}
	if c.Summary().Text != "- old summary" {
		t.Errorf("Expected summary to survive load, got %q", c.Summary().Text)
	}
}
