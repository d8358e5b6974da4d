package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/satriahrh/nova/domain/entities"
)

func TestSentenceChunker(t *testing.T) {
	var chunker sentenceChunker

	got := chunker.feed("Hi there! How was ")
	require.Equal(t, []string{"Hi there!"}, got)

	got = chunker.feed("your day? Mine was fine")
	require.Equal(t, []string{"How was your day?"}, got)

	assert.Equal(t, "Mine was fine", chunker.flush())
	assert.Equal(t, "", chunker.flush())
}

func TestBuildContents_CapsHistoryAndScreenText(t *testing.T) {
	var history []entities.Turn
	for i := 0; i < 30; i++ {
		history = append(history, entities.Turn{
			ID:        "t",
			Speaker:   entities.SpeakerUser,
			Text:      "turn",
			Timestamp: time.Now(),
		})
	}

	screen := strings.Repeat("x", 1000)
	contents := buildContents(history, screen, "hello")

	// capped history + user text + screen snapshot
	require.Len(t, contents, maxPromptTurns+2)

	last := contents[len(contents)-1]
	require.Len(t, last.Parts, 1)
	assert.True(t, strings.HasPrefix(last.Parts[0].Text, "Screen context: "))
	assert.Len(t, []rune(last.Parts[0].Text), maxScreenRunes+len("Screen context: "))
}

func TestBuildContents_SpeakerRoles(t *testing.T) {
	history := []entities.Turn{
		{Speaker: entities.SpeakerUser, Text: "Hello"},
		{Speaker: entities.SpeakerAssistant, Text: "Hi there!"},
	}

	contents := buildContents(history, "", "how are you?")
	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, genai.RoleUser, contents[2].Role)
}

func TestBuildContents_NoScreenText(t *testing.T) {
	contents := buildContents(nil, "", "hello")
	require.Len(t, contents, 1)
	assert.Equal(t, "hello", contents[0].Parts[0].Text)
}
