package tts

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

type stubSynthesizer struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
	calls  []string
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, text string) (*repositories.Synthesis, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	out := make(chan []byte, len(s.chunks)+1)
	for _, chunk := range s.chunks {
		out <- chunk
	}
	close(out)
	return &repositories.Synthesis{
		Format: repositories.AudioFormat{SampleRate: 22050, Channels: 1},
		Chunks: out,
	}, nil
}

func (s *stubSynthesizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func drain(t *testing.T, synthesis *repositories.Synthesis) int {
	t.Helper()
	total := 0
	for chunk := range synthesis.Chunks {
		total += len(chunk)
	}
	return total
}

func TestFallbackSynthesizer_PrimaryHealthy(t *testing.T) {
	primary := &stubSynthesizer{chunks: [][]byte{make([]byte, 512), make([]byte, 512)}}
	fallback := &stubSynthesizer{chunks: [][]byte{make([]byte, 128)}}
	synth := NewFallbackSynthesizer(primary, fallback, zaptest.NewLogger(t))

	synthesis, err := synth.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if got := drain(t, synthesis); got != 1024 {
		t.Errorf("Expected 1024 bytes from primary, got %d", got)
	}
	if fallback.callCount() != 0 {
		t.Errorf("Fallback should not be called when primary succeeds, got %d calls", fallback.callCount())
	}
}

func TestFallbackSynthesizer_EmptyPrimaryInvokesFallbackOnce(t *testing.T) {
	primary := &stubSynthesizer{} // closes without a single chunk
	fallback := &stubSynthesizer{chunks: [][]byte{make([]byte, 256)}}
	synth := NewFallbackSynthesizer(primary, fallback, zaptest.NewLogger(t))

	synthesis, err := synth.Synthesize(context.Background(), "Good morning")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if got := drain(t, synthesis); got != 256 {
		t.Errorf("Expected 256 bytes from fallback, got %d", got)
	}

	if fallback.callCount() != 1 {
		t.Fatalf("Expected exactly one fallback call, got %d", fallback.callCount())
	}
	if fallback.calls[0] != "Good morning" {
		t.Errorf("Fallback should receive the same text, got %q", fallback.calls[0])
	}
}

func TestFallbackSynthesizer_BothFail(t *testing.T) {
	primary := &stubSynthesizer{err: errors.New("network down")}
	fallback := &stubSynthesizer{err: errors.New("engine missing")}
	synth := NewFallbackSynthesizer(primary, fallback, zaptest.NewLogger(t))

	_, err := synth.Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error when both engines fail")
	}
	if entities.KindOf(err) != entities.FaultSynthesis {
		t.Errorf("Expected synthesis fault, got %v", entities.KindOf(err))
	}
	if fallback.callCount() != 1 {
		t.Errorf("Expected exactly one fallback attempt, got %d", fallback.callCount())
	}
}
