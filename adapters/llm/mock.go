package llm

import (
	"context"
	"sync"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

// MockReplyGenerator returns scripted replies and summaries for tests and
// offline demos.
type MockReplyGenerator struct {
	mu           sync.Mutex
	replies      []string
	replyErr     error
	summaryText  string
	summaryErr   error
	replyCalls   int
	lastScreen   string
	lastUserText string
	histories    [][]entities.Turn
	gate         <-chan struct{}
}

var (
	_ repositories.ReplyGenerator = (*MockReplyGenerator)(nil)
	_ repositories.Summarizer     = (*MockReplyGenerator)(nil)
)

func NewMockReplyGenerator(replies ...string) *MockReplyGenerator {
	return &MockReplyGenerator{replies: replies}
}

// FailReplies makes every subsequent StreamReply report err.
func (m *MockReplyGenerator) FailReplies(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replyErr = err
}

// Gate holds back every reply stream until release is closed.
func (m *MockReplyGenerator) Gate(release <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = release
}

// SetSummary scripts the next Summarize result.
func (m *MockReplyGenerator) SetSummary(text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryText = text
	m.summaryErr = err
}

// ReplyCalls reports how many replies were requested.
func (m *MockReplyGenerator) ReplyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replyCalls
}

// LastHistory returns the history passed to the most recent StreamReply.
func (m *MockReplyGenerator) LastHistory() []entities.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.histories) == 0 {
		return nil
	}
	return m.histories[len(m.histories)-1]
}

func (m *MockReplyGenerator) StreamReply(_ context.Context, history []entities.Turn, screenText, userText string) (<-chan repositories.ReplyFragment, error) {
	m.mu.Lock()
	m.replyCalls++
	m.lastScreen = screenText
	m.lastUserText = userText
	m.histories = append(m.histories, history)
	gate := m.gate
	replyErr := m.replyErr
	reply := "I'm speechless!"
	if len(m.replies) > 0 {
		reply = m.replies[0]
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	fragments := make(chan repositories.ReplyFragment, 4)
	go func() {
		defer close(fragments)
		if gate != nil {
			<-gate
		}
		if replyErr != nil {
			fragments <- repositories.ReplyFragment{Err: replyErr}
			return
		}
		var chunker sentenceChunker
		for _, sentence := range chunker.feed(reply) {
			fragments <- repositories.ReplyFragment{Text: sentence}
		}
		if tail := chunker.flush(); tail != "" {
			fragments <- repositories.ReplyFragment{Text: tail}
		}
	}()
	return fragments, nil
}

func (m *MockReplyGenerator) Summarize(context.Context, []entities.Turn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaryText, m.summaryErr
}
