package contextstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

// Turns retained when pause-time summarization produces nothing usable.
const trimmedTailTurns = 4

// FileStore persists the conversation as a JSON file. Writes go through a
// temp file plus rename so a reader never observes a partial state.
type FileStore struct {
	fs     afero.Fs
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	context *entities.ConversationContext
}

var _ repositories.ContextStore = (*FileStore)(nil)

// NewFileStore creates a store rooted at path. The file does not have to
// exist; deleting it between runs resets conversational memory.
func NewFileStore(fs afero.Fs, path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		fs:      fs,
		path:    path,
		logger:  logger,
		context: entities.NewConversationContext(nil),
	}
}

// Load reads the persisted state, returning an empty context when the file
// is absent or unreadable.
func (s *FileStore) Load() (*entities.ConversationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		s.context = entities.NewConversationContext(nil)
		return s.context, nil
	}

	var state entities.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("Discarding unreadable context file",
			zap.String("path", s.path),
			zap.Error(err))
		s.context = entities.NewConversationContext(nil)
		return s.context, nil
	}

	s.context = entities.NewConversationContext(&state)
	s.logger.Info("Loaded conversation context",
		zap.String("path", s.path),
		zap.Int("turns", s.context.Len()),
		zap.Bool("hasSummary", !s.context.Summary().IsZero()))
	return s.context, nil
}

// AppendTurn records a turn and flushes to disk.
func (s *FileStore) AppendTurn(turn entities.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.context.Append(turn)
	return s.flushLocked()
}

// Turns returns the current in-memory history.
func (s *FileStore) Turns() []entities.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context.Turns()
}

// SummarizeAndPersist condenses the history and persists the summary,
// superseding the full turn list. A failed or empty summarization falls back
// to a local digest; if that is also empty the history is trimmed to its
// tail instead.
func (s *FileStore) SummarizeAndPersist(ctx context.Context, summarizer repositories.Summarizer) (entities.Summary, error) {
	s.mu.Lock()
	turns := s.context.Turns()
	s.mu.Unlock()

	text, err := summarizer.Summarize(ctx, turns)
	if err != nil {
		s.logger.Warn("Summarization failed, using local digest", zap.Error(err))
		text = ""
	}
	if text == "" {
		text = entities.FallbackSummary(turns)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if text == "" {
		s.context.TrimTail(trimmedTailTurns)
		return entities.Summary{}, s.flushLocked()
	}

	summary := entities.Summary{Text: text, GeneratedAt: time.Now()}
	s.context.Supersede(summary)
	return summary, s.flushLocked()
}

// Flush persists the current state.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	state := s.context.State()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return entities.NewFault(entities.FaultPersistence, err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return entities.NewFault(entities.FaultPersistence, fmt.Errorf("create %s: %w", dir, err))
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return entities.NewFault(entities.FaultPersistence, fmt.Errorf("write %s: %w", tmp, err))
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return entities.NewFault(entities.FaultPersistence, fmt.Errorf("rename %s: %w", tmp, err))
	}
	return nil
}
