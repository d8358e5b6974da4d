package llm

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTimeoutSeconds = 30
	summarizeAttempts     = 3

	// Prompt history is capped separately from the persisted history to keep
	// latency down.
	maxPromptTurns = 18
	maxScreenRunes = 500
)

const personaPrompt = "You are Nova, an AI roommate who is casual but intelligent. " +
	"Speak naturally, like a friendly human roommate. " +
	"If the user asks for help, be concise and witty when appropriate."

const summarizePrompt = "Summarize our recent conversation into at most three " +
	"concise bullet points focusing on decisions, tasks, or important facts."

// GeminiConfig holds configuration for the Gemini reply generator.
type GeminiConfig struct {
	APIKey         string
	ProjectID      string
	Model          string
	TimeoutSeconds int
}

// GeminiReplyGenerator produces Nova's replies and summaries via the Gemini
// API, streaming replies in sentence-sized fragments.
type GeminiReplyGenerator struct {
	client  *genai.Client
	logger  *zap.Logger
	model   string
	timeout time.Duration
}

var (
	_ repositories.ReplyGenerator = (*GeminiReplyGenerator)(nil)
	_ repositories.Summarizer     = (*GeminiReplyGenerator)(nil)
)

// NewGeminiReplyGenerator creates a Gemini-backed reply generator. A missing
// API key is a credential fault, reported up rather than deferred to the
// first request.
func NewGeminiReplyGenerator(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiReplyGenerator, error) {
	if config.APIKey == "" {
		return nil, entities.Faultf(entities.FaultCredential, "gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Project: config.ProjectID,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, entities.NewFault(entities.FaultCredential, err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}
	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &GeminiReplyGenerator{
		client:  client,
		logger:  logger,
		model:   model,
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// StreamReply generates a reply to userText in character, streamed as
// sentence-sized fragments so synthesis can start before the reply finishes.
func (g *GeminiReplyGenerator) StreamReply(ctx context.Context, history []entities.Turn, screenText, userText string) (<-chan repositories.ReplyFragment, error) {
	contents := buildContents(history, screenText, userText)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	fragments := make(chan repositories.ReplyFragment, 4)

	go func() {
		defer close(fragments)
		defer cancel()

		var chunker sentenceChunker
		emitted := false

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, g.generateConfig()) {
			if err != nil {
				g.logger.Error("Reply stream failed", zap.Error(err))
				fragments <- repositories.ReplyFragment{Err: entities.NewFault(entities.FaultReply, err)}
				return
			}
			for _, sentence := range chunker.feed(responseText(resp)) {
				emitted = true
				select {
				case fragments <- repositories.ReplyFragment{Text: sentence}:
				case <-ctx.Done():
					return
				}
			}
		}

		if tail := chunker.flush(); tail != "" {
			emitted = true
			select {
			case fragments <- repositories.ReplyFragment{Text: tail}:
			case <-ctx.Done():
				return
			}
		}

		if !emitted {
			fragments <- repositories.ReplyFragment{
				Err: entities.Faultf(entities.FaultReply, "model produced an empty reply"),
			}
		}
	}()

	return fragments, nil
}

// Summarize condenses the history into a short digest. Retried like any
// other generation since a pause-time summary is worth a few extra seconds.
func (g *GeminiReplyGenerator) Summarize(ctx context.Context, history []entities.Turn) (string, error) {
	if len(history) == 0 {
		return "", nil
	}

	contents := buildContents(history, "", summarizePrompt)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var resp *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < summarizeAttempts; attempt++ {
		resp, err = g.client.Models.GenerateContent(ctx, g.model, contents, g.generateConfig())
		if err == nil {
			break
		}
		g.logger.Warn("Summarization attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		if attempt < summarizeAttempts-1 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}
	if err != nil {
		return "", entities.NewFault(entities.FaultReply, err)
	}

	return strings.TrimSpace(responseText(resp)), nil
}

func (g *GeminiReplyGenerator) generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(personaPrompt, genai.RoleUser),
	}
}

// buildContents renders the persona conversation: capped history, the user
// utterance, and the optional screen snapshot as a trailing user message.
func buildContents(history []entities.Turn, screenText, userText string) []*genai.Content {
	if len(history) > maxPromptTurns {
		history = history[len(history)-maxPromptTurns:]
	}

	var contents []*genai.Content
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Speaker == entities.SpeakerAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	contents = append(contents, genai.NewContentFromText(userText, genai.RoleUser))

	if screenText != "" {
		if runes := []rune(screenText); len(runes) > maxScreenRunes {
			screenText = string(runes[:maxScreenRunes])
		}
		contents = append(contents, genai.NewContentFromText("Screen context: "+screenText, genai.RoleUser))
	}

	return contents
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String()
}
