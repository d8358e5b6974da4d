package stt

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/repositories"
)

// MockRecognizer returns scripted transcripts for tests and offline demos.
type MockRecognizer struct {
	logger *zap.Logger

	mu      sync.Mutex
	scripts []string
	err     error
	calls   int
}

var _ repositories.SpeechRecognizer = (*MockRecognizer)(nil)

func NewMockRecognizer(logger *zap.Logger, scripts ...string) *MockRecognizer {
	return &MockRecognizer{logger: logger, scripts: scripts}
}

// Fail makes every subsequent Recognize return err.
func (m *MockRecognizer) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many recognitions were requested.
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockRecognizer) Recognize(_ context.Context, audio []byte, _ repositories.AudioConfig) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.scripts) == 0 {
		return "", nil
	}

	next := m.scripts[0]
	m.scripts = m.scripts[1:]
	m.logger.Debug("Mock transcription", zap.String("text", next), zap.Int("audioSize", len(audio)))
	return next, nil
}
